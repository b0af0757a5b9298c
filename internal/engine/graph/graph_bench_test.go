package graph

import (
	"fmt"
	"testing"

	"depscope/internal/engine/parser"
)

func benchRepo(files int) *parser.RepositoryExtractionResult {
	repo := parser.NewRepositoryResult("/bench")
	for i := 0; i < files; i++ {
		path := fmt.Sprintf("pkg/file%d.py", i)
		f := parser.NewFileResult(path, parser.FrontendPython)
		for j := 0; j < 5; j++ {
			f.Functions = append(f.Functions, parser.FunctionEntity{
				Name:       fmt.Sprintf("f%d_%d", i, j),
				LineStart:  j*10 + 1,
				LineEnd:    j*10 + 8,
				Calls:      []string{fmt.Sprintf("f%d_%d", (i+1)%files, j), "print"},
				Complexity: 1 + j,
			})
		}
		repo.Files[path] = f
	}
	return repo
}

func BenchmarkBuildCallGraph(b *testing.B) {
	repo := benchRepo(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildCallGraph(repo, CallGraphOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDetectCycles(b *testing.B) {
	g := ring(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DetectCycles(g, CycleModuleImport, DetectOptions{Canonical: true})
	}
}

func BenchmarkComputeCoupling(b *testing.B) {
	g, err := BuildCallGraph(benchRepo(200), CallGraphOptions{})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeCoupling(g)
	}
}
