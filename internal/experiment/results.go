package experiment

import "github.com/nikhilbhutani/followuplab/internal/models"

type Summary struct {
	Users     int `json:"users"`
	Questions int `json:"questions"`
	Cases     int `json:"cases"`
	Followups int `json:"followups"`
}

type UserGroup struct {
	User  models.User         `json:"user"`
	Cases []models.CaseResult `json:"cases"`
}

type Report struct {
	Groups  []UserGroup `json:"groups"`
	Summary Summary     `json:"summary"`
}

// Aggregate groups cases by user in the order users first appear, keeping
// the input order inside each group.
func Aggregate(cases []models.CaseResult) Report {
	report := Report{Groups: []UserGroup{}}
	groupIdx := make(map[int64]int)
	questions := make(map[int64]struct{})

	for _, c := range cases {
		i, ok := groupIdx[c.User.ID]
		if !ok {
			i = len(report.Groups)
			groupIdx[c.User.ID] = i
			report.Groups = append(report.Groups, UserGroup{User: c.User})
		}
		report.Groups[i].Cases = append(report.Groups[i].Cases, c)

		questions[c.Question.ID] = struct{}{}
		report.Summary.Followups += len(c.Followups)
	}

	report.Summary.Users = len(report.Groups)
	report.Summary.Questions = len(questions)
	report.Summary.Cases = len(cases)
	return report
}
