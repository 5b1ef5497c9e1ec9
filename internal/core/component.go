package core

import (
	"encoding/json"
	"fmt"
)

// ComponentKind identifies one of the magazine component variants.
type ComponentKind string

const (
	KindPullQuote     ComponentKind = "pull_quote"
	KindStatHighlight ComponentKind = "stat_highlight"
	KindCaseStudy     ComponentKind = "case_study"
	KindSidebar       ComponentKind = "sidebar"
)

// Anchor locates where a component is inserted in the article body.
// Exactly one of the fields is set: AfterParagraph counts <p> tags from the
// start of the article (1-based), AfterHeading matches the exact text of an
// <h2>. A zero Anchor means the component has no placement and is dropped.
type Anchor struct {
	AfterParagraph int    `json:"insert_after_paragraph,omitempty"`
	AfterHeading   string `json:"insert_after_heading,omitempty"`
}

// IsZero reports whether the anchor carries no placement at all.
func (a Anchor) IsZero() bool { return a.AfterParagraph == 0 && a.AfterHeading == "" }

// Component is the sealed interface over the magazine component variants.
// Only the four types in this package implement it.
type Component interface {
	Kind() ComponentKind
	Anchor() Anchor
}

// PullQuote is a large stylized quotation pulled from the article text.
type PullQuote struct {
	Content string `json:"content"`
	At      Anchor `json:"-"`
}

func (p PullQuote) Kind() ComponentKind { return KindPullQuote }
func (p PullQuote) Anchor() Anchor      { return p.At }

// StatHighlight is a single boxed metric with a short description.
type StatHighlight struct {
	Number      string `json:"number"`
	Description string `json:"description"`
	At          Anchor `json:"-"`
}

func (s StatHighlight) Kind() ComponentKind { return KindStatHighlight }
func (s StatHighlight) Anchor() Anchor      { return s.At }

// CaseStudy is a structured real-world example box.
type CaseStudy struct {
	Title     string   `json:"title"`
	Profile   string   `json:"profile"`
	Challenge string   `json:"challenge"`
	Solution  string   `json:"solution"`
	Results   []string `json:"results"`
	Quote     string   `json:"quote"`
	At        Anchor   `json:"-"`
}

func (c CaseStudy) Kind() ComponentKind { return KindCaseStudy }
func (c CaseStudy) Anchor() Anchor      { return c.At }

// Sidebar is a complementary info box with its own heading and HTML content.
type Sidebar struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	At      Anchor `json:"-"`
}

func (s Sidebar) Kind() ComponentKind { return KindSidebar }
func (s Sidebar) Anchor() Anchor      { return s.At }

// componentEnvelope is the wire shape the model returns: a flat object with
// a "type" tag, the variant's fields, and one of the two anchor keys.
type componentEnvelope struct {
	Type        ComponentKind `json:"type"`
	Content     string        `json:"content"`
	Number      string        `json:"number"`
	Description string        `json:"description"`
	Title       string        `json:"title"`
	Profile     string        `json:"profile"`
	Challenge   string        `json:"challenge"`
	Solution    string        `json:"solution"`
	Results     []string      `json:"results"`
	Quote       string        `json:"quote"`

	AfterParagraph int    `json:"insert_after_paragraph"`
	AfterHeading   string `json:"insert_after_heading"`
}

// DecodeComponents converts raw tagged JSON objects into typed components.
// Objects with an unknown or missing type tag are skipped and reported in
// the second return value; they are never an error.
func DecodeComponents(raw []json.RawMessage) ([]Component, []string) {
	var components []Component
	var skipped []string

	for i, msg := range raw {
		var env componentEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			skipped = append(skipped, fmt.Sprintf("component %d: %v", i, err))
			continue
		}

		anchor := Anchor{AfterParagraph: env.AfterParagraph, AfterHeading: env.AfterHeading}

		switch env.Type {
		case KindPullQuote:
			components = append(components, PullQuote{Content: env.Content, At: anchor})
		case KindStatHighlight:
			components = append(components, StatHighlight{Number: env.Number, Description: env.Description, At: anchor})
		case KindCaseStudy:
			components = append(components, CaseStudy{
				Title:     env.Title,
				Profile:   env.Profile,
				Challenge: env.Challenge,
				Solution:  env.Solution,
				Results:   env.Results,
				Quote:     env.Quote,
				At:        anchor,
			})
		case KindSidebar:
			components = append(components, Sidebar{Title: env.Title, Content: env.Content, At: anchor})
		default:
			skipped = append(skipped, fmt.Sprintf("component %d: unknown type %q", i, env.Type))
		}
	}

	return components, skipped
}

// EncodeComponent converts a typed component back into its wire shape,
// used when persisting drafts to backup files.
func EncodeComponent(c Component) ([]byte, error) {
	env := componentEnvelope{Type: c.Kind()}
	anchor := c.Anchor()
	env.AfterParagraph = anchor.AfterParagraph
	env.AfterHeading = anchor.AfterHeading

	switch v := c.(type) {
	case PullQuote:
		env.Content = v.Content
	case StatHighlight:
		env.Number = v.Number
		env.Description = v.Description
	case CaseStudy:
		env.Title = v.Title
		env.Profile = v.Profile
		env.Challenge = v.Challenge
		env.Solution = v.Solution
		env.Results = v.Results
		env.Quote = v.Quote
	case Sidebar:
		env.Title = v.Title
		env.Content = v.Content
	default:
		return nil, fmt.Errorf("unknown component type %T", c)
	}

	return json.Marshal(env)
}
