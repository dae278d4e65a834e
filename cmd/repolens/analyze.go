package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens-mcp/internal/analysis"
	"github.com/repolens/repolens-mcp/internal/gitrepo"
	"github.com/repolens/repolens-mcp/internal/walker"
	"github.com/repolens/repolens-mcp/pkg/types"
)

var analyzeFlags struct {
	from     string
	to       string
	kinds    []string
	maxFiles int
	exclude  []string
	asJSON   bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo-path]",
	Short: "Analyze a repository and print the result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.from, "from", "", "base revision for a diff analysis")
	f.StringVar(&analyzeFlags.to, "to", "", "target revision for a diff analysis")
	f.StringSliceVar(&analyzeFlags.kinds, "kinds", nil, "analysis kinds: metrics, structure, changes (default all)")
	f.IntVar(&analyzeFlags.maxFiles, "max-files", 0, "cap on included files (0 uses the configured default)")
	f.StringSliceVar(&analyzeFlags.exclude, "exclude", nil, "extra exclude patterns")
	f.BoolVar(&analyzeFlags.asJSON, "json", false, "print the raw JSON result")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repoPath := "."
	if len(args) == 1 {
		repoPath = args[0]
	}
	repoPath, err = filepath.Abs(repoPath)
	if err != nil {
		return err
	}

	kinds, err := types.ParseKinds(analyzeFlags.kinds)
	if err != nil {
		return err
	}
	if (analyzeFlags.from == "") != (analyzeFlags.to == "") {
		return fmt.Errorf("--from and --to must be given together")
	}

	req := &types.AnalysisRequest{
		RepoPath:        repoPath,
		Kinds:           kinds,
		MaxFiles:        analyzeFlags.maxFiles,
		ExcludePatterns: analyzeFlags.exclude,
	}
	if analyzeFlags.from != "" {
		req.Revisions = &types.RevisionRange{From: analyzeFlags.from, To: analyzeFlags.to}
	}

	analyzer, err := analysis.New(cfg, func(path string) (walker.Source, error) {
		return gitrepo.Open(path)
	})
	if err != nil {
		return err
	}

	result, err := analyzer.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	if analyzeFlags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	render(result)
	return nil
}

func render(result *types.AnalysisResult) {
	fmt.Printf("Repository: %s\n", result.RepoPath)
	fmt.Printf("Status: %s (%dms)\n\n", result.Status, result.DurationMS)

	if s := result.Summary; s != nil {
		renderSummary(s)
	}
	if result.Structure != nil {
		renderStructure(result.Structure)
	}
	if len(result.Changes) > 0 {
		renderChanges(result.Changes)
	}
	if len(result.Skipped) > 0 {
		fmt.Println("Skipped paths:")
		for _, sk := range result.Skipped {
			fmt.Printf("  %s (%s)\n", sk.Path, sk.Reason)
		}
		fmt.Println()
	}
}

func renderSummary(s *types.MetricsSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Files scanned", s.FilesScanned},
		{"Files included", s.FilesIncluded},
		{"Files excluded", s.FilesExcluded},
		{"Total size", humanize.Bytes(uint64(s.TotalSizeBytes))},
	})
	if s.LinesAdded > 0 || s.LinesRemoved > 0 {
		t.AppendRow(table.Row{"Lines", fmt.Sprintf("+%d / -%d", s.LinesAdded, s.LinesRemoved)})
	}
	if s.Truncated {
		t.AppendRow(table.Row{"Truncated", "yes"})
	}
	t.Render()
	fmt.Println()

	if len(s.ByExtension) > 0 {
		exts := make([]string, 0, len(s.ByExtension))
		for ext := range s.ByExtension {
			exts = append(exts, ext)
		}
		sort.Slice(exts, func(i, j int) bool {
			a, b := s.ByExtension[exts[i]], s.ByExtension[exts[j]]
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return exts[i] < exts[j]
		})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Extension", "Files", "Size"})
		for _, ext := range exts {
			st := s.ByExtension[ext]
			t.AppendRow(table.Row{ext, st.Count, humanize.Bytes(uint64(st.SizeBytes))})
		}
		t.Render()
		fmt.Println()
	}
}

func renderStructure(root *types.DirectoryNode) {
	w := list.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(list.StyleConnectedLight)
	appendNode(w, root)
	w.Render()
	fmt.Println()
}

func appendNode(w list.Writer, node *types.DirectoryNode) {
	if len(node.Children) == 0 {
		w.AppendItem(fmt.Sprintf("%s (%s)", node.Name, humanize.Bytes(uint64(node.SizeBytes))))
		return
	}
	w.AppendItem(fmt.Sprintf("%s (%d files, %s)", node.Name, node.FileCount, humanize.Bytes(uint64(node.SizeBytes))))
	w.Indent()
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		appendNode(w, node.Children[name])
	}
	w.UnIndent()
}

func renderChanges(changes []types.FileEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Status", "+", "-"})
	for _, ch := range changes {
		t.AppendRow(table.Row{ch.Path, ch.Status, ch.LinesAdded, ch.LinesRemoved})
	}
	t.Render()
	fmt.Println()
}
