package interview

import (
	"fmt"
	"strings"
)

// Directive tells the voice agent to change conversational phase once the
// elapsed interview time reaches TriggerMinute.
type Directive struct {
	TriggerMinute float64 `json:"trigger_minute"`
	Instruction   string  `json:"instruction"`
}

// Instructions is the full contract handed to the voice agent: the system
// prompt and the time-keyed pacing schedule.
type Instructions struct {
	Prompt   string      `json:"prompt"`
	Schedule []Directive `json:"pacing_schedule"`
}

var depthInstructions = map[Depth]string{
	DepthLight:    "Keep the conversation brisk. Ask one question per competency and at most one follow-up probe when an answer is vague.",
	DepthModerate: "Ask one question per competency and follow up with one or two probes to get concrete examples before moving on.",
	DepthDeep:     "Dig into each competency with two or three follow-up probes. Push for specifics: situation, actions taken, measurable outcomes.",
}

// Synthesize builds the system prompt and pacing schedule for a session's
// voice agent. It is a pure function of the template and candidate name:
// identical inputs produce byte-identical output. It performs no I/O and
// never contacts the voice transport itself.
func Synthesize(tpl *Template, candidateName string) Instructions {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		name = "the candidate"
	}

	depth, ok := depthInstructions[tpl.Config.Depth]
	if !ok {
		depth = depthInstructions[DepthModerate]
	}

	duration := tpl.Config.MaxDurationMinutes

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional, friendly voice interviewer conducting a screening interview on behalf of %s for the role of %s.\n", tpl.CompanyName, tpl.JobTitle)
	fmt.Fprintf(&b, "You are speaking with %s. The interview must finish within %d minutes.\n\n", name, duration)

	if strings.TrimSpace(tpl.JobDescription) != "" {
		b.WriteString("ROLE CONTEXT\n")
		b.WriteString(strings.TrimSpace(tpl.JobDescription))
		b.WriteString("\n\n")
	}

	b.WriteString("COMPETENCIES TO ASSESS (in order)\n")
	for i, competency := range tpl.Competencies {
		fmt.Fprintf(&b, "%d. %s\n", i+1, competency)
	}
	b.WriteString("\n")

	if len(tpl.MustAsk) > 0 {
		b.WriteString("REQUIRED QUESTIONS\nYou must ask each of the following, verbatim or lightly rephrased:\n")
		for i, question := range tpl.MustAsk {
			fmt.Fprintf(&b, "%d. %s\n", i+1, question)
		}
		b.WriteString("\n")
	}

	b.WriteString("INTERVIEW STYLE\n")
	b.WriteString(depth)
	b.WriteString("\n\n")

	b.WriteString("GROUND RULES\n")
	b.WriteString("Ask one question at a time and let the candidate finish speaking. ")
	b.WriteString("Do not evaluate or score answers aloud. ")
	b.WriteString("Do not promise any hiring outcome. ")
	b.WriteString("Follow the pacing directives you receive during the call.\n")

	return Instructions{
		Prompt:   b.String(),
		Schedule: pacingSchedule(duration),
	}
}

// pacingSchedule derives the phase-change checkpoints from the configured
// duration. All trigger points are fractions or offsets of the duration so a
// longer or shorter interview rescales every checkpoint proportionally.
func pacingSchedule(durationMinutes int) []Directive {
	d := float64(durationMinutes)
	return []Directive{
		{
			TriggerMinute: d * 0.5,
			Instruction:   "Half the time is gone. Narrow your probing to the competencies not yet covered.",
		},
		{
			TriggerMinute: d * 0.75,
			Instruction:   "Begin wrapping up the current topic. Warn the candidate that only a few minutes remain.",
		},
		{
			TriggerMinute: d - 2,
			Instruction:   "Stop asking new questions. Offer the candidate a short window to ask their own questions.",
		},
		{
			TriggerMinute: d - 1,
			Instruction:   "Transition to closing. Thank the candidate and explain the next steps in the process.",
		},
		{
			TriggerMinute: d - 0.5,
			Instruction:   "Deliver the closing statement and end the interview now.",
		},
	}
}
