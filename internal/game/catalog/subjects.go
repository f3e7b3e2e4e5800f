package catalog

import "github.com/dhleesep9/gayoon/internal/session/domain"

// electives lists every elective subject a mentee may pick, in the
// order presented to the player.
var electives = []domain.Subject{
	"사회문화",
	"정치와법",
	"경제",
	"세계지리",
	"한국지리",
	"생활과윤리",
	"윤리와사상",
	"세계사",
	"동아시아사",
	"물리학1",
	"화학1",
	"지구과학1",
	"생명과학1",
	"물리학2",
	"화학2",
	"지구과학2",
	"생명과학2",
}

// Electives returns the elective subject catalog.
func Electives() []domain.Subject {
	return append([]domain.Subject(nil), electives...)
}

// IsElective reports whether the name is a known elective subject.
func IsElective(name domain.Subject) bool {
	for _, s := range electives {
		if s == name {
			return true
		}
	}
	return false
}

// Career describes a mentee career track and the electives it
// synergizes with.
type Career struct {
	ID       string
	Name     string
	Subjects []domain.Subject
	Bonus    float64
}

var careers = []Career{
	{ID: "engineer", Name: "공학자", Subjects: []domain.Subject{"물리학1", "물리학2", "지구과학1"}, Bonus: 1.2},
	{ID: "doctor", Name: "의사", Subjects: []domain.Subject{"생명과학1", "생명과학2", "화학1"}, Bonus: 1.2},
	{ID: "lawyer", Name: "법조인", Subjects: []domain.Subject{"정치와법", "사회문화"}, Bonus: 1.2},
	{ID: "diplomat", Name: "외교관", Subjects: []domain.Subject{"세계사", "세계지리"}, Bonus: 1.2},
	{ID: "teacher", Name: "교사", Subjects: []domain.Subject{"생활과윤리", "윤리와사상"}, Bonus: 1.2},
}

// Careers returns the career catalog.
func Careers() []Career {
	return append([]Career(nil), careers...)
}

// CareerBonus returns the ability-gain multiplier a career grants to one
// elective subject; 1.0 when there is no synergy.
func CareerBonus(careerID string, elective domain.Subject) float64 {
	for _, c := range careers {
		if c.ID != careerID {
			continue
		}
		for _, s := range c.Subjects {
			if s == elective {
				return c.Bonus
			}
		}
	}
	return 1.0
}
