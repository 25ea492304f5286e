package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/job-application-agent/internal/protocol"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

var lineTagUsage = map[protocol.LineTag]string{
	protocol.TagName:           "the candidate's full name",
	protocol.TagContact:        "contact details (email, phone, LinkedIn, portfolio)",
	protocol.TagHeading:        "a major section heading such as EDUCATION or PROFESSIONAL EXPERIENCE",
	protocol.TagSubheadCompany: "a company name inside the experience section",
	protocol.TagSubheadTitle:   "a job title inside the experience section",
	protocol.TagSubheadProject: "a project title inside the projects section",
	protocol.TagDates:          "the dates of a position or degree",
	protocol.TagBullet:         "one bullet point, starting with '-' or '*'",
	protocol.TagNormal:         "any other line, e.g. a degree name or a skills list",
}

func lineTagInstructions() string {
	var b strings.Builder
	for _, tag := range protocol.LineTags() {
		fmt.Fprintf(&b, "   - %s: %s\n", tag.Token(), lineTagUsage[tag])
	}
	return b.String()
}

func enclosureRule(block protocol.Block) string {
	return fmt.Sprintf(`Your ENTIRE response must start with the line '%s' and end with the line '%s'.
Do not write anything before the start marker or after the end marker: no greetings, no thoughts, no explanations.`,
		block.Start, block.End)
}

func guidanceSection(guidance string) string {
	if strings.TrimSpace(guidance) == "" {
		return ""
	}
	return fmt.Sprintf("\nREFERENCE GUIDANCE:\n%s\n", guidance)
}

// BuildAnalysisPrompt creates the first-stage prompt comparing the resume to
// the job description.
func (pb *PromptBuilder) BuildAnalysisPrompt(app ApplicationContext, guidance string) string {
	return fmt.Sprintf(`You are an experienced recruiter comparing a candidate's resume with a %s job posting.

JOB DESCRIPTION:
%s

CANDIDATE RESUME:
%s
%s
Your task:
1. List the key skills, qualifications and experience the job asks for.
2. Summarize where the resume already matches them.
3. Point out gaps, missing keywords and sections that should be tailored to this posting.
4. Keep the analysis concrete and actionable.

%s`,
		jobTitleOrDefault(app.JobTitle), app.JobDescription, app.Resume, guidanceSection(guidance), enclosureRule(protocol.AnalysisBlock))
}

// BuildModificationPrompt creates the prompt that rewrites the resume. analysis
// and feedback are optional and must already be free of block markers.
func (pb *PromptBuilder) BuildModificationPrompt(app ApplicationContext, analysis, feedback, guidance string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a professional resume writer tailoring a resume to one job posting.

ORIGINAL RESUME:
%s

JOB DESCRIPTION:
%s
`, app.Resume, app.JobDescription)

	if analysis != "" {
		fmt.Fprintf(&b, "\nANALYSIS OF THE CURRENT FIT:\n%s\n", analysis)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\nUSER INSTRUCTIONS (apply these first):\n%s\n", feedback)
	} else {
		b.WriteString("\nNo user instructions were given. Tailor the resume using the analysis and the job description.\n")
	}
	b.WriteString(guidanceSection(guidance))

	fmt.Fprintf(&b, `
Rules:
1. Work the job description's keywords into the relevant sections.
2. Rewrite the most relevant bullets as measurable achievements, using real numbers from the resume where they exist.
3. Never invent employers, titles, degrees or metrics.
4. Keep contact details and education facts unchanged.
5. Start EVERY line with exactly one of these tags, followed by a single space and the text:
%s
%s`, lineTagInstructions(), enclosureRule(protocol.ModificationBlock))

	return b.String()
}

// BuildEssayPrompt creates the prompt for an application essay answer, which
// may instead come back as a single clarifying question.
func (pb *PromptBuilder) BuildEssayPrompt(app ApplicationContext, essay EssayInput, guidance string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are writing a short answer to a job application question on behalf of the candidate.

QUESTION:
%s

RESUME:
%s

JOB DESCRIPTION:
%s
`, essay.Question, app.Resume, app.JobDescription)

	if essay.UserInput != "" {
		fmt.Fprintf(&b, "\nCANDIDATE NOTES (base the answer primarily on these):\n%s\n", essay.UserInput)
	} else {
		b.WriteString("\nNo notes from the candidate. Base the answer on the resume.")
		if essay.ExperienceLevel != "" {
			fmt.Fprintf(&b, " Assume %s years of experience.", essay.ExperienceLevel)
		}
		b.WriteString("\nIf the resume lacks the specifics the question needs, you may ask the candidate one question instead of writing the essay.\n")
	}
	b.WriteString(guidanceSection(guidance))

	fmt.Fprintf(&b, `
Write one to three professional paragraphs that answer the question directly and fit the role.

Respond in exactly one of two forms:
A) The essay. %s
B) A single question for the candidate, on one line, starting with '%s'. Nothing else.`,
		enclosureRule(protocol.EssayBlock), protocol.QuestionPrefix)

	return b.String()
}

// BuildExplanationPrompt creates the prompt for answering a question about the
// analysis or the modified resume. analysis and modification must already be
// free of block markers.
func (pb *PromptBuilder) BuildExplanationPrompt(app ApplicationContext, in ExplanationInput) string {
	return fmt.Sprintf(`You are discussing a tailored resume with the candidate.

CANDIDATE QUESTION:
%s

ORIGINAL RESUME:
%s

JOB DESCRIPTION:
%s

ANALYSIS:
%s

MODIFIED RESUME:
%s

Answer the question clearly and briefly in a conversational tone. When asked about changes, explain what changed between the original and the modified resume and why, citing the analysis and the job description.
You only explain. Do not offer to change the resume, do not output resume text, and do not ask whether further changes are wanted.`,
		in.Query, app.Resume, app.JobDescription, valueOrNone(in.Analysis), valueOrNone(in.Modification))
}

// BuildGuidanceQuery creates the retrieval query for a guidance type.
func (pb *PromptBuilder) BuildGuidanceQuery(docType string, app ApplicationContext) string {
	switch docType {
	case GuideTypeResume:
		return fmt.Sprintf("Resume writing advice for a %s role: %s", jobTitleOrDefault(app.JobTitle), protocol.Truncate(app.JobDescription, 2000))
	case GuideTypeEssay:
		return fmt.Sprintf("Application essay advice for a %s role", jobTitleOrDefault(app.JobTitle))
	default:
		return app.JobDescription
	}
}

func jobTitleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return "target"
	}
	return title
}

func valueOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
