package agent

import (
	"fmt"
	"strings"
)

// profile defines the prompt material for one category. The table below is
// the single source of dispatch for the closed category set.
type profile struct {
	role      string
	focus     []string
	diffFocus []string
	example   string
}

var profiles = map[Category]profile{
	CategorySecurity: {
		role: "cybersecurity expert conducting a thorough security code review",
		focus: []string{
			"**Input Validation**: proper sanitization and validation of user inputs",
			"**Authentication & Authorization**: access controls and permission checks",
			"**Data Protection**: sensitive data exposure, encryption issues",
			"**Injection Attacks**: SQL injection, XSS, command injection vulnerabilities",
			"**Error Handling**: information disclosure through error messages",
			"**Cryptography**: weak encryption, insecure random number generation",
			"**Session Management**: session fixation, hijacking vulnerabilities",
			"**OWASP Top 10**: common web application security risks",
		},
		diffFocus: []string{
			"Input validation, authentication, data protection",
			"Injection attacks (SQL, XSS, command injection)",
			"Error handling, cryptography, session management",
			"OWASP Top 10 vulnerabilities",
		},
		example: `Line 15: SQL Injection vulnerability - user input is directly concatenated into query string...`,
	},
	CategoryPerformance: {
		role: "performance optimization expert reviewing code for efficiency and scalability",
		focus: []string{
			"**Algorithm Complexity**: time and space complexity analysis",
			"**Data Structures**: optimal data structure usage",
			"**Memory Management**: memory leaks, unnecessary allocations",
			"**Database Operations**: query optimization, N+1 problems, indexing",
			"**Caching**: missing caching opportunities, cache invalidation",
			"**I/O Operations**: file handling, network call optimization",
			"**Concurrency**: threading issues, blocking calls",
			"**Scalability**: code that won't scale with increased load",
		},
		diffFocus: []string{
			"Algorithm complexity, data structures, memory management",
			"Database operations, caching, I/O operations",
			"Concurrency, resource usage, scalability",
		},
		example: `Line 25: Inefficient loop - O(n²) complexity due to nested iteration...`,
	},
	CategoryStyle: {
		role: "senior software engineer expert in coding standards and best practices",
		focus: []string{
			"**Code Structure**: organization, modularity, separation of concerns",
			"**Naming Conventions**: variable, function, and type naming clarity",
			"**Function Design**: single responsibility, function length, parameters",
			"**Error Handling**: proper error propagation and handling",
			"**Code Duplication**: DRY principle violations, repeated logic",
			"**SOLID Principles**: single responsibility, open/closed, and friends",
			"**Design Patterns**: appropriate pattern usage, anti-patterns",
			"**Maintainability**: readability, ease of future modification",
		},
		diffFocus: []string{
			"Code structure, naming conventions, function design",
			"Error handling, documentation, code duplication",
			"SOLID principles, design patterns, testability, maintainability",
		},
		example: `Line 42: Use 'const' instead of 'var' for variables that don't change...`,
	},
	CategoryArchitecture: {
		role: "software architect reviewing code for architectural soundness and design quality",
		focus: []string{
			"**Design Patterns**: appropriate pattern usage, pattern violations",
			"**Coupling & Cohesion**: loose coupling, high cohesion principles",
			"**Abstraction Levels**: proper abstraction, interface design",
			"**Dependency Management**: dependency injection, inversion of control",
			"**Layered Architecture**: proper layer separation, architectural boundaries",
			"**Scalability Design**: structure for horizontal/vertical scaling",
			"**Component Interactions**: service boundaries, API design",
			"**Technical Debt**: architectural shortcuts, future refactoring needs",
		},
		diffFocus: []string{
			"Design patterns, coupling & cohesion, abstraction levels",
			"Dependency management, layered architecture, scalability design",
			"Extensibility, component interactions, data flow, technical debt",
		},
		example: `Line 33: Tight coupling - direct database access should be abstracted...`,
	},
	CategoryReadability: {
		role: "technical documentation expert focused on code readability and clarity",
		focus: []string{
			"**Code Clarity**: self-explanatory code, clear logic flow",
			"**Variable Naming**: descriptive, meaningful names",
			"**Function Naming**: clear purpose indication",
			"**Comments**: helpful comments, avoiding obvious ones",
			"**Code Organization**: logical grouping, consistent formatting",
			"**Complexity**: overly complex expressions, nested logic",
			"**Magic Numbers**: hard-coded values without explanation",
			"**Code Length**: function length appropriateness",
		},
		diffFocus: []string{
			"Variable/function naming, code clarity, documentation",
			"Comments quality, code organization, complexity reduction",
		},
		example: `Line 67: Variable name 'data' is too generic - consider 'filteredUsers'...`,
	},
	CategoryTestability: {
		role: "test engineering expert reviewing code for testability and test coverage",
		focus: []string{
			"**Test Coverage**: missing test scenarios, edge cases",
			"**Dependency Injection**: hard dependencies, mocking difficulties",
			"**Function Design**: pure functions, side effect isolation",
			"**State Management**: global state, stateful operations",
			"**External Dependencies**: database, API, file system dependencies",
			"**Error Conditions**: exception scenarios, error path testing",
			"**Assertion Points**: verifiable outcomes, observable behavior",
			"**Mock Points**: interfaces for mocking, testable boundaries",
		},
		diffFocus: []string{
			"Test coverage, dependency injection, side effect isolation",
			"External dependencies, error path testing, mock points",
		},
		example: `Line 12: Hard-coded database connection - inject the dependency for testability...`,
	},
}

// systemPrompt is the fixed system instruction shared by all agents. It
// demands exhaustive coverage and the "Line X:" citation format the parser
// relies on.
func systemPrompt(c Category) string {
	return fmt.Sprintf("You are a %s expert conducting a thorough code review. "+
		"CRITICAL REQUIREMENTS: 1) ALWAYS scan the ENTIRE code thoroughly for ALL potential issues, "+
		"2) NEVER miss obvious problems, "+
		"3) ALWAYS provide specific line numbers for each issue you identify, "+
		"4) Format your response to clearly indicate the line number for each finding (e.g., 'Line 15: Issue description'), "+
		"5) Be comprehensive and consistent in your analysis.", c)
}

// numberLines prefixes every payload line with its 1-based line number so the
// backend can cite exact locations.
func numberLines(code string) string {
	lines := strings.Split(code, "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%3d: %s", i+1, line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// buildPrompt assembles the category-specific user prompt. In diff-only mode
// the instructions restrict commentary to added/changed lines; otherwise the
// payload is rendered with explicit line numbers.
func buildPrompt(c Category, code string, diffOnly bool) string {
	p := profiles[c]
	if diffOnly {
		return buildDiffPrompt(c, p, code)
	}
	return buildFullPrompt(c, p, code)
}

func buildFullPrompt(c Category, p profile, code string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a %s.\n\n", p.role)
	fmt.Fprintf(&b, "Analyze this code for %s issues and provide specific, actionable feedback with EXACT LINE NUMBERS:\n\n", c)
	fmt.Fprintf(&b, "```\n%s\n```\n\n", numberLines(code))

	b.WriteString("CRITICAL: For each issue found, you MUST:\n")
	b.WriteString("- Start with \"Line X:\" where X is the specific line number\n")
	b.WriteString("- Clearly state the issue\n")
	b.WriteString("- Explain the impact and risk level (Critical/High/Medium/Low)\n")
	b.WriteString("- Provide specific remediation steps\n\n")

	fmt.Fprintf(&b, "Focus on these %s aspects:\n", c)
	for i, f := range p.focus {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}

	fmt.Fprintf(&b, "\nExample format: %q\n\n", p.example)
	b.WriteString("Be thorough but concise. Focus on actionable improvements with specific line references.")

	return b.String()
}

func buildDiffPrompt(c Category, p profile, code string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a %s reviewing code changes.\n\n", p.role)
	b.WriteString("CRITICAL RESTRICTION: You are reviewing a DIFF with context. ")
	b.WriteString("You MUST ONLY comment on the lines that are being ADDED or CHANGED in the diff ")
	b.WriteString("(lines starting with '+' or modified lines). DO NOT comment on context lines or unchanged code.\n\n")

	b.WriteString("The content below contains:\n")
	b.WriteString("1. DIFF TO REVIEW: The actual changes you should analyze\n")
	b.WriteString("2. FULL FILE CONTEXT: Additional context to understand the changes (DO NOT REVIEW THESE LINES)\n\n")

	b.WriteString(code)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("- ONLY review the lines that are being added/changed in the DIFF section\n")
	b.WriteString("- Use the FULL FILE CONTEXT only to understand the broader context\n")
	fmt.Fprintf(&b, "- For each %s issue found in the DIFF changes, provide:\n", c)
	b.WriteString("  * Exact line number from the diff\n")
	b.WriteString("  * Issue type and impact level (Critical/High/Medium/Low)\n")
	b.WriteString("  * Specific remediation steps\n")
	b.WriteString("  * Start with \"Line X:\" format\n\n")

	fmt.Fprintf(&b, "Focus on %s aspects in the CHANGED LINES ONLY:\n", c)
	for _, f := range p.diffFocus {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	fmt.Fprintf(&b, "\nExample: %q\n\n", p.example)
	b.WriteString("Be concise and actionable. IGNORE unchanged context lines.")

	return b.String()
}
