package textindex_test

import (
	"math"
	"testing"

	"github.com/okian/gigmatch/internal/domain/textindex"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTokenize(t *testing.T) {
	Convey("Given free text", t, func() {
		Convey("When it mixes punctuation and case", func() {
			So(textindex.Tokenize("Node.js, C++ and REST APIs"), ShouldResemble, []string{"node", "js", "and", "rest", "apis"})
		})

		Convey("When it contains single character words", func() {
			So(textindex.Tokenize("R a Go"), ShouldResemble, []string{"go"})
		})

		Convey("When it contains non-ASCII letters", func() {
			So(textindex.Tokenize("Café Über"), ShouldResemble, []string{"café", "über"})
		})

		Convey("When it is empty", func() {
			So(textindex.Tokenize(""), ShouldBeEmpty)
		})
	})
}

func TestFit(t *testing.T) {
	Convey("Given a small skills corpus", t, func() {
		docs := []string{"Python Django", "Java Spring", "Python Flask"}
		idx := textindex.Fit(docs)

		Convey("Then every term under the document frequency ceiling is kept", func() {
			So(idx.Terms(), ShouldResemble, []string{"django", "flask", "java", "python", "spring"})
			So(idx.Size(), ShouldEqual, 5)
		})

		Convey("Then a single-term document transforms to a unit vector", func() {
			v := idx.Transform("java")
			So(v.Len(), ShouldEqual, 1)
			So(textindex.Cosine(v, idx.Transform("Java")), ShouldAlmostEqual, 1.0, 1e-12)
		})

		Convey("Then out-of-vocabulary tokens contribute nothing", func() {
			So(idx.Transform("cobol fortran").IsZero(), ShouldBeTrue)
			So(idx.Transform("cobol java").Len(), ShouldEqual, 1)
		})
	})

	Convey("Given terms present in more than 80% of documents", t, func() {
		idx := textindex.Fit([]string{"python", "python java"})

		Convey("Then they are pruned from the vocabulary", func() {
			So(idx.Terms(), ShouldResemble, []string{"java"})
			So(idx.Transform("python").IsZero(), ShouldBeTrue)
		})
	})

	Convey("Given a single document corpus", t, func() {
		idx := textindex.Fit([]string{"go rust"})

		Convey("Then every term exceeds the ceiling and the vocabulary is empty", func() {
			So(idx.Size(), ShouldEqual, 0)
			So(idx.Transform("go").IsZero(), ShouldBeTrue)
		})
	})

	Convey("Given a custom max document frequency", t, func() {
		idx := textindex.Fit([]string{"python", "python java"}, textindex.WithMaxDF(1.0), textindex.WithMinDF(1))
		So(idx.Terms(), ShouldResemble, []string{"java", "python"})
	})

	Convey("Given rarer terms", t, func() {
		idx := textindex.Fit([]string{"python django", "python flask", "java", "go", "rust"})

		Convey("Then they weigh more than common ones in a mixed document", func() {
			mixed := idx.Transform("python django")
			djangoOnly := idx.Transform("django")
			pythonOnly := idx.Transform("python")
			So(textindex.Cosine(mixed, djangoOnly), ShouldBeGreaterThan, textindex.Cosine(mixed, pythonOnly))
		})
	})
}

func TestCosine(t *testing.T) {
	Convey("Given fitted vectors", t, func() {
		idx := textindex.Fit([]string{"python django rest", "java spring", "python data science", "go grpc", "rust wasm"})
		texts := []string{"python", "django rest", "java", "python java go", "", "cobol", "rust rust rust", "science data python"}

		Convey("Then every pairwise similarity lies in [0, 1]", func() {
			for _, a := range texts {
				for _, b := range texts {
					sim := textindex.Cosine(idx.Transform(a), idx.Transform(b))
					So(sim, ShouldBeBetweenOrEqual, 0.0, 1.0)
					So(math.IsNaN(sim), ShouldBeFalse)
				}
			}
		})

		Convey("Then similarity is symmetric", func() {
			a, b := idx.Transform("python django"), idx.Transform("python data")
			So(textindex.Cosine(a, b), ShouldAlmostEqual, textindex.Cosine(b, a), 1e-15)
		})

		Convey("Then zero vectors give exactly zero", func() {
			So(textindex.Cosine(textindex.Vector{}, idx.Transform("python")), ShouldEqual, 0)
			So(textindex.Cosine(textindex.Vector{}, textindex.Vector{}), ShouldEqual, 0)
		})

		Convey("Then disjoint vectors give zero", func() {
			So(textindex.Cosine(idx.Transform("java"), idx.Transform("rust")), ShouldEqual, 0)
		})
	})
}
