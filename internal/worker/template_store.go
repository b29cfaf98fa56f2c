package worker

import "github.com/procweave/orchestrator/internal/fsm"

func toStoredTemplate(t *fsm.Template) StoredTemplate {
	states := make([]string, len(t.States))
	for i, s := range t.States {
		states[i] = string(s)
	}
	instr := make(map[string]string, len(t.Instructions))
	for s, v := range t.Instructions {
		instr[string(s)] = v
	}
	return StoredTemplate{
		ProcessType:          t.ProcessType,
		States:               states,
		Instructions:         instr,
		RequiredOutputFields: t.RequiredOutputFields,
		HITLRequired:         t.HITLRequired,
		RequiresReopenGate:   t.RequiresReopenGate,
	}
}

func fromStoredTemplate(st StoredTemplate) *fsm.Template {
	states := make([]fsm.State, len(st.States))
	for i, s := range st.States {
		states[i] = fsm.State(s)
	}
	instr := make(map[fsm.State]string, len(st.Instructions))
	for s, v := range st.Instructions {
		instr[fsm.State(s)] = v
	}
	return &fsm.Template{
		ProcessType:          st.ProcessType,
		States:               states,
		Instructions:         instr,
		RequiredOutputFields: st.RequiredOutputFields,
		HITLRequired:         st.HITLRequired,
		RequiresReopenGate:   st.RequiresReopenGate,
	}
}
