package catalog

// AdmissionGroup is one of the three Korean application rounds.
type AdmissionGroup string

const (
	GroupGa AdmissionGroup = "가군"
	GroupNa AdmissionGroup = "나군"
	GroupDa AdmissionGroup = "다군"
)

// UniversityTarget is one row of the admission table: a department and
// the average percentile its regular admission roughly requires.
type UniversityTarget struct {
	University       string
	Department       string
	CutoffPercentile float64
	Group            AdmissionGroup
}

var universities = []UniversityTarget{
	{University: "서울대학교", Department: "컴퓨터공학부", CutoffPercentile: 96, Group: GroupGa},
	{University: "연세대학교", Department: "경영학과", CutoffPercentile: 93, Group: GroupGa},
	{University: "한양대학교", Department: "기계공학부", CutoffPercentile: 85, Group: GroupGa},
	{University: "고려대학교", Department: "미디어학부", CutoffPercentile: 91, Group: GroupNa},
	{University: "성균관대학교", Department: "소프트웨어학과", CutoffPercentile: 88, Group: GroupNa},
	{University: "중앙대학교", Department: "심리학과", CutoffPercentile: 80, Group: GroupNa},
	{University: "경희대학교", Department: "관광학과", CutoffPercentile: 72, Group: GroupDa},
	{University: "건국대학교", Department: "경제학과", CutoffPercentile: 65, Group: GroupDa},
	{University: "국민대학교", Department: "자동차공학과", CutoffPercentile: 55, Group: GroupDa},
}

// Universities returns the admission table.
func Universities() []UniversityTarget {
	return append([]UniversityTarget(nil), universities...)
}

// FindUniversity locates a row by university and department name.
func FindUniversity(university, department string) (UniversityTarget, bool) {
	for _, u := range universities {
		if u.University == university && u.Department == department {
			return u, true
		}
	}
	return UniversityTarget{}, false
}
