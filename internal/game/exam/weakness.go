package exam

import (
	"fmt"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// weaknessPools holds the per-subject problem descriptions surfaced in
// the exam feedback loops.
var weaknessPools = map[domain.Subject][]string{
	domain.SubjectKorean: {
		"비문학 지문에서 시간을 너무 많이 써서 뒤쪽 문제를 다 못 풀었어요",
		"문학 개념어가 헷갈려서 선지를 좁히지 못했어요",
		"화법과 작문에서 실수로 두 문제나 틀렸어요",
	},
	domain.SubjectMath: {
		"킬러 문항은 손도 못 대고 넘어갔어요",
		"계산 실수가 많아서 아는 문제도 틀렸어요",
		"개념은 아는데 문제에 적용하는 게 잘 안 돼요",
	},
	domain.SubjectEnglish: {
		"빈칸 추론 유형에서 거의 다 틀렸어요",
		"지문 읽는 속도가 느려서 마지막 지문은 찍었어요",
		"듣기에서 집중력이 떨어져서 두 문제를 놓쳤어요",
	},
	domain.SubjectElective1: {
		"개념 정리가 덜 돼서 기본 문제에서도 흔들렸어요",
		"자료 해석 문제에서 시간이 너무 오래 걸렸어요",
	},
	domain.SubjectElective2: {
		"막판에 급하게 공부해서 범위 뒷부분이 통째로 비어 있어요",
		"기출 유형이 조금만 바뀌어도 못 풀겠어요",
	},
}

// WeaknessMessage returns a deterministic problem description for a
// subject given its grade. Worse grades rotate through the pool so
// repeated exams do not always repeat the same complaint.
func WeaknessMessage(subject domain.Subject, grade int) string {
	pool, ok := weaknessPools[subject]
	if !ok || len(pool) == 0 {
		return fmt.Sprintf("%s 과목이 전반적으로 흔들리고 있어요", subject)
	}
	if grade < 1 {
		grade = 1
	}
	return pool[(grade-1)%len(pool)]
}
