package executor

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/planner"
)

const readmeTreeLimit = 30

// buildReadme renders the project README from the architecture and, when
// available, the codebase insight. The README doubles as context for later
// generation calls, so it keeps a stable section layout.
func buildReadme(arch *planner.Architecture, files []string, analysis insight.Analysis) string {
	var b strings.Builder

	appName := arch.AppName
	if appName == "" {
		appName = "Project"
	}
	fmt.Fprintf(&b, "# %s\n\n", appName)
	b.WriteString("> Generated by [Gryffin](https://github.com/gryffinlabs/gryffin) - AI-powered development tool\n\n")

	b.WriteString("## Overview\n\n")
	if arch.Overview != "" {
		b.WriteString(arch.Overview)
	} else {
		b.WriteString("No overview available.")
	}
	b.WriteString("\n\n## Components\n\n")
	for _, c := range arch.Components {
		fmt.Fprintf(&b, "- **%s**: %s\n", c.Name, c.Responsibility)
	}

	b.WriteString("\n## File Structure\n\n```\n")
	fmt.Fprintf(&b, "%s/\n", appName)
	tree := files
	if len(tree) > readmeTreeLimit {
		tree = tree[:readmeTreeLimit]
	}
	for _, f := range tree {
		fmt.Fprintf(&b, "├── %s\n", f)
	}
	b.WriteString("```\n")

	fmt.Fprintf(&b, "\n## System Configuration\n\n- **Operating System**: %s/%s\n- **Go Version**: %s\n",
		runtime.GOOS, runtime.GOARCH, runtime.Version())

	if len(arch.TechStack) > 0 {
		b.WriteString("\n## Tech Stack\n\n")
		keys := make([]string, 0, len(arch.TechStack))
		for k := range arch.TechStack {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, arch.TechStack[k])
		}
	}

	if arch.DataFlow != "" {
		fmt.Fprintf(&b, "\n## Data Flow\n\n%s\n", arch.DataFlow)
	}

	if len(arch.Risks) > 0 {
		b.WriteString("\n## Known Risks & Limitations\n\n")
		for _, r := range arch.Risks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(arch.Assumptions) > 0 {
		b.WriteString("\n## Assumptions\n\n")
		for _, a := range arch.Assumptions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	if analysis.HasInsight() {
		writeInsightSection(&b, analysis.Insight)
	}

	b.WriteString("\n## Development\n\n" +
		"This project was generated and is being developed using Gryffin, which " +
		"generates architecture and task plans, implements features, and maintains " +
		"this README for context. When implementing features, reference this README " +
		"to stay consistent with the project's architecture and constraints.\n")

	return b.String()
}

func writeInsightSection(b *strings.Builder, ins *insight.CodebaseInsight) {
	b.WriteString("\n## Existing Codebase Analysis\n\n" +
		"This project has existing code that was analyzed by Gryffin's Context Builder:\n\n")

	if len(ins.ExistingFunctionality) > 0 {
		b.WriteString("### Existing Functionality\n\n")
		for _, fn := range ins.ExistingFunctionality {
			fmt.Fprintf(b, "- %s\n", fn)
		}
		b.WriteString("\n")
	}
	if len(ins.Gaps) > 0 {
		b.WriteString("### Gaps & Opportunities\n\n")
		for _, gap := range ins.Gaps {
			fmt.Fprintf(b, "- %s\n", gap)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Integration Recommendations\n\n")
	if ins.Recommendations.HowToExtend != "" {
		fmt.Fprintf(b, "**How to Extend**: %s\n\n", ins.Recommendations.HowToExtend)
	}
	if ins.Recommendations.PatternsToFollow != "" {
		fmt.Fprintf(b, "**Patterns to Follow**: %s\n\n", ins.Recommendations.PatternsToFollow)
	}
	if ins.Recommendations.IntegrationPoints != "" {
		fmt.Fprintf(b, "**Integration Points**: %s\n\n", ins.Recommendations.IntegrationPoints)
	}
}
