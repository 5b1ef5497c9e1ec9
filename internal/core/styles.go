package core

// WritingStyle selects the voice the article generator writes in and the
// visual approach the image prompt generator matches to it.
type WritingStyle string

const (
	StyleConversational WritingStyle = "Conversational/Personal"
	StyleAuthoritative  WritingStyle = "Authoritative/Expert"
	StyleNarrative      WritingStyle = "Narrative/Storytelling"
	StyleListicle       WritingStyle = "Listicle/Scannable"
	StyleInvestigative  WritingStyle = "Investigative/Journalistic"
	StyleHowTo          WritingStyle = "How-to/Instructional"
	StyleOpinion        WritingStyle = "Opinion/Commentary"
	StyleHumorous       WritingStyle = "Humorous/Satirical"
)

var writingGuidance = map[WritingStyle]string{
	StyleConversational: "Write in a warm, friendly tone with first-person perspective and relatable anecdotes.",
	StyleAuthoritative:  "Write in a professional, credible tone with data-driven insights and industry expertise.",
	StyleNarrative:      "Write with compelling story structure, vivid descriptions, and emotional journey.",
	StyleListicle:       "Write in highly scannable format with numbered points and clear takeaways.",
	StyleInvestigative:  "Write with objective journalism style and multiple perspectives.",
	StyleHowTo:          "Write as clear tutorial with step-by-step instructions.",
	StyleOpinion:        "Write as persuasive opinion piece with strong arguments.",
	StyleHumorous:       "Write with wit and entertainment value using wordplay.",
}

var visualGuidance = map[WritingStyle]string{
	StyleConversational: "Use warm, relatable imagery - human subjects, everyday settings, emotional connections",
	StyleAuthoritative:  "Use professional settings, expert subjects, data visualization, corporate/medical/scientific environments",
	StyleNarrative:      "Use story-driven scenes, human subjects in meaningful moments, cinematic compositions",
	StyleListicle:       "Use clear, simple imagery - icons, clean backgrounds, easily identifiable subjects",
	StyleInvestigative:  "Use documentary-style imagery, revealing details, evidence-focused, journalistic realism",
	StyleHowTo:          "Use process-focused imagery, step-by-step visuals, instructional clarity",
	StyleOpinion:        "Use thought-provoking imagery, conceptual visuals, metaphorical subjects",
	StyleHumorous:       "Use playful imagery, unexpected juxtapositions, clever visual humor",
}

// WritingGuidance returns prose instructions for the given style. A style
// outside the catalog is passed through verbatim so custom styles still work.
func (s WritingStyle) WritingGuidance() string {
	if g, ok := writingGuidance[s]; ok {
		return g
	}
	return string(s)
}

// VisualGuidance returns the matching art-direction instructions, or an
// empty string for unknown styles.
func (s WritingStyle) VisualGuidance() string {
	return visualGuidance[s]
}

// KnownStyles lists the catalog in a stable order for CLI display.
func KnownStyles() []WritingStyle {
	return []WritingStyle{
		StyleConversational, StyleAuthoritative, StyleNarrative, StyleListicle,
		StyleInvestigative, StyleHowTo, StyleOpinion, StyleHumorous,
	}
}
