package parser

import (
	"context"
	"testing"
)

func fuzzFrontend(f *testing.F, path string, seeds ...string) {
	p, err := NewParser(NewGrammarLoader(), nil)
	if err != nil {
		f.Fatal(err)
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		res := p.ParseFile(context.Background(), path, data)
		if res == nil {
			t.Fatal("nil result")
		}
		if res.Failed() && (len(res.Functions) > 0 || len(res.Imports) > 0 || len(res.Calls) > 0) {
			t.Fatalf("failed result kept entities: %+v", res)
		}
		for _, fn := range res.Functions {
			if fn.LineStart > fn.LineEnd {
				t.Fatalf("%s: line_start %d after line_end %d", fn.Name, fn.LineStart, fn.LineEnd)
			}
			if fn.Complexity < 1 {
				t.Fatalf("%s: complexity %d", fn.Name, fn.Complexity)
			}
		}
	})
}

func FuzzPythonFrontend(f *testing.F) {
	fuzzFrontend(f, "test.py", `def main():
    print("hello")
if __name__ == "__main__":
    main()`, "class A:\n    def m(self):\n        return self.n()\n")
}

func FuzzGoFrontend(f *testing.F) {
	fuzzFrontend(f, "test.go", `package main
func main() {
	println("hello")
}`)
}

func FuzzScriptLexicalFrontend(f *testing.F) {
	fuzzFrontend(f, "test.js", "import x from './x'\nfunction f(a) { return g(a) }\n", "const h = async () => { await f() }\n")
}
