package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/gryffinlabs/gryffin/collector"
	"github.com/gryffinlabs/gryffin/providers/contracts"
)

// DefaultPayloadLimit bounds the serialized analysis request. Payloads over
// the limit are cut down by dropping whole files, never by failing.
const DefaultPayloadLimit = 8 * 1024 * 1024

const analysisSystemPrompt = `You are an expert code analyst. Analyze the provided codebase and return ONLY a valid JSON object with this structure:

{
  "project_type": "string - e.g., 'Django Python Backend', 'React Frontend', 'Full-stack Node.js'",
  "existing_apps": ["list of existing apps/modules/components"],
  "tech_stack": {
    "backend": "string or null",
    "frontend": "string or null",
    "database": "string or null"
  },
  "existing_functionality": [
    "List each major feature/capability implemented",
    "Be specific about what each module/file does"
  ],
  "gaps_and_opportunities": [
    "What's missing or incomplete?",
    "What could be improved?"
  ],
  "recommendations": {
    "how_to_extend": "How should new features be added to this codebase?",
    "patterns_to_follow": "What patterns/conventions does this code use?",
    "integration_points": "Where can new code integrate with existing code?"
  }
}

Be thorough and specific. Reference actual file names and code patterns you see. Return ONLY valid JSON, no markdown formatting.`

// Extractor submits a snapshot to the analysis provider and parses the
// response into a CodebaseInsight.
type Extractor struct {
	Provider     contracts.IChatProvider
	ArtifactDir  string
	PayloadLimit int
}

// NewExtractor wires an extractor to a provider. artifactDir is where the
// insight artifact is written on success.
func NewExtractor(provider contracts.IChatProvider, artifactDir string) *Extractor {
	return &Extractor{
		Provider:     provider,
		ArtifactDir:  artifactDir,
		PayloadLimit: DefaultPayloadLimit,
	}
}

// Extract runs one bounded analysis attempt against a non-empty snapshot.
// Every failure mode (no provider, transport error, malformed response,
// missing required fields) degrades to a Failed analysis; this function
// never returns an error, because analysis must not abort the pipeline.
func (e *Extractor) Extract(ctx context.Context, snapshot *collector.Snapshot) Analysis {
	if snapshot == nil || snapshot.Empty() {
		return Skipped("empty snapshot, nothing to analyze")
	}
	if e.Provider == nil {
		pterm.Warning.Println("No analysis provider configured; continuing without codebase insight")
		return Failed("no analysis provider configured")
	}

	payload, dropped := e.buildPayload(snapshot)
	if dropped > 0 {
		pterm.Warning.Printfln("Analysis payload over limit; dropped %d largest file(s)", dropped)
	}

	raw, err := e.Provider.GenerateJSON(ctx, analysisSystemPrompt, payload)
	if err != nil {
		pterm.Warning.Printfln("Codebase analysis failed: %v", err)
		return Failed(fmt.Sprintf("analysis request failed: %v", err))
	}

	ins, err := ParseInsight(raw)
	if err != nil {
		pterm.Warning.Printfln("Codebase analysis returned an unusable response: %v", err)
		return Failed(fmt.Sprintf("unparseable analysis response: %v", err))
	}

	if e.ArtifactDir != "" {
		if _, err := SaveArtifact(e.ArtifactDir, ins); err != nil {
			pterm.Warning.Printfln("Could not persist insight artifact: %v", err)
		}
	}
	return Analyzed(ins)
}

// buildPayload serializes the snapshot into one analysis request. When the
// assembled payload would exceed the limit, the outline section is dropped
// first, then whole files largest first (ties broken by path) until it fits;
// remaining files keep snapshot order. Returns the payload and the number of
// dropped files.
func (e *Extractor) buildPayload(snapshot *collector.Snapshot) (string, int) {
	limit := e.PayloadLimit
	if limit <= 0 {
		limit = DefaultPayloadLimit
	}

	outline := buildOutlineSection(snapshot.Files)

	fixed := len(analysisSystemPrompt) + len(outline) + 256
	if fixed > limit {
		// A declaration-dense outline can exceed the ceiling on its own;
		// file contents take priority, so the outline goes first.
		outline = ""
		fixed = len(analysisSystemPrompt) + 256
	}
	budget := limit - fixed
	if budget < 0 {
		budget = 0
	}

	include := make([]bool, len(snapshot.Files))
	total := 0
	for i, f := range snapshot.Files {
		include[i] = true
		total += fileBlockLen(f)
	}

	dropped := 0
	if total > budget {
		order := make([]int, len(snapshot.Files))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			fa, fb := snapshot.Files[order[a]], snapshot.Files[order[b]]
			if fa.SizeBytes != fb.SizeBytes {
				return fa.SizeBytes > fb.SizeBytes
			}
			return fa.Path < fb.Path
		})
		for _, idx := range order {
			if total <= budget {
				break
			}
			include[idx] = false
			total -= fileBlockLen(snapshot.Files[idx])
			dropped++
		}
	}

	var b strings.Builder
	b.WriteString("# CODEBASE CONTENTS\n\n")
	if dropped > 0 {
		fmt.Fprintf(&b, "(%d file(s) omitted to fit the analysis size limit)\n\n", dropped)
	}
	if outline != "" {
		b.WriteString("## PROJECT OUTLINE\n\n")
		b.WriteString(outline)
		b.WriteString("\n")
	}
	for i, f := range snapshot.Files {
		if !include[i] {
			continue
		}
		fmt.Fprintf(&b, "=== FILE: %s ===\n%s\n\n", f.Path, f.Content)
	}
	return b.String(), dropped
}

func fileBlockLen(f collector.FileRecord) int {
	return len(f.Path) + len(f.Content) + 16
}

// DisplaySummary renders the parsed insight as terminal tables, mirroring
// the scan summary shown after collection.
func DisplaySummary(ins *CodebaseInsight) {
	if ins == nil {
		return
	}
	pterm.DefaultSection.Println("Codebase Insight")
	pterm.Info.Printfln("Project type: %s", ins.ProjectType)

	if len(ins.TechStack) > 0 {
		components := make([]string, 0, len(ins.TechStack))
		for component := range ins.TechStack {
			components = append(components, component)
		}
		sort.Strings(components)
		rows := pterm.TableData{{"Component", "Technology"}}
		for _, component := range components {
			rows = append(rows, []string{component, ins.TechStack[component]})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}

	if len(ins.ExistingApps) > 0 {
		pterm.Info.Printfln("Existing apps/modules: %s", strings.Join(ins.ExistingApps, ", "))
	}
	for _, fn := range ins.ExistingFunctionality {
		pterm.Println("  • " + fn)
	}
	if len(ins.Gaps) > 0 {
		pterm.Warning.Printfln("Gaps & opportunities: %s", strings.Join(ins.Gaps, "; "))
	}
}
