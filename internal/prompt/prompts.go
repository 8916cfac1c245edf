package prompt

// CondenseData feeds the question condensation prompt.
type CondenseData struct {
	Organization string `prompt:"required"`
	ChatHistory  string
	Question     string `prompt:"required"`
}

// AnswerSystemData feeds the system prompt of the answer synthesizer.
type AnswerSystemData struct {
	Organization string `prompt:"required"`
	Fallback     string `prompt:"required"`
}

// AnswerData feeds the user prompt of the answer synthesizer. Context may be
// empty when nothing relevant was retrieved.
type AnswerData struct {
	Context     string
	ChatHistory string
	Question    string `prompt:"required"`
}

var (
	Condense     = MustLoad[CondenseData]("condense")
	AnswerSystem = MustLoad[AnswerSystemData]("answer_system")
	Answer       = MustLoad[AnswerData]("answer")
)
