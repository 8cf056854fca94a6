package collab_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/gigmatch/internal/domain/collab"
	"github.com/okian/gigmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ratings(rows ...[3]any) []model.Interaction {
	out := make([]model.Interaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Interaction{ClientID: r[0].(string), FreelancerID: r[1].(string), Rating: r[2].(float64)})
	}
	return out
}

func TestBuildMatrix(t *testing.T) {
	Convey("Given interactions with a duplicated pair", t, func() {
		rm := collab.BuildMatrix(ratings(
			[3]any{"C2", "F1", 2.0},
			[3]any{"C1", "F2", 5.0},
			[3]any{"C1", "F2", 3.0},
			[3]any{"C1", "F1", 1.0},
		))

		Convey("Then rows and columns are sorted identifiers", func() {
			So(rm.Rows, ShouldResemble, []string{"C1", "C2"})
			So(rm.Cols, ShouldResemble, []string{"F1", "F2"})
		})

		Convey("Then duplicates are averaged and gaps are zero", func() {
			So(rm.Values.At(0, 1), ShouldEqual, 4.0)
			So(rm.Values.At(0, 0), ShouldEqual, 1.0)
			So(rm.Values.At(1, 0), ShouldEqual, 2.0)
			So(rm.Values.At(1, 1), ShouldEqual, 0.0)
		})
	})

	Convey("Given no interactions", t, func() {
		So(collab.BuildMatrix(nil), ShouldBeNil)
	})
}

func TestFitAndPredict(t *testing.T) {
	Convey("Given a matrix smaller than the default rank", t, func() {
		m, err := collab.Fit(ratings(
			[3]any{"C1", "F1", 4.0},
			[3]any{"C1", "F2", 2.0},
			[3]any{"C2", "F2", 5.0},
			[3]any{"C3", "F3", 1.0},
		))
		So(err, ShouldBeNil)
		So(m.Rank(), ShouldEqual, 3)
		So(m.Clients(), ShouldEqual, 3)

		Convey("Then the reconstruction is exact and normalized by the row maximum", func() {
			row, ok := m.PredictForClient("C1")
			So(ok, ShouldBeTrue)
			So(row["F1"], ShouldAlmostEqual, 1.0, 1e-9)
			So(row["F2"], ShouldAlmostEqual, 0.5, 1e-9)
			So(row["F3"], ShouldAlmostEqual, 0.0, 1e-9)
		})

		Convey("Then unknown clients carry no signal", func() {
			_, ok := m.PredictForClient("C404")
			So(ok, ShouldBeFalse)
			_, ok = m.PredictForClient("")
			So(ok, ShouldBeFalse)
			So(m.KnowsClient("C2"), ShouldBeTrue)
			So(m.KnowsClient("C404"), ShouldBeFalse)
		})
	})

	Convey("Given a rank-1 truncation of a diagonal matrix", t, func() {
		m, err := collab.Fit(ratings(
			[3]any{"C1", "F1", 3.0},
			[3]any{"C2", "F2", 1.0},
		), collab.WithRank(1))
		So(err, ShouldBeNil)
		So(m.Rank(), ShouldEqual, 1)

		Convey("Then the weaker component is dropped", func() {
			row, ok := m.PredictForClient("C1")
			So(ok, ShouldBeTrue)
			So(row["F1"], ShouldAlmostEqual, 1.0, 1e-9)
			So(row["F2"], ShouldAlmostEqual, 0.0, 1e-9)
		})

		Convey("Then an all-zero row keeps divisor 1", func() {
			row, ok := m.PredictForClient("C2")
			So(ok, ShouldBeTrue)
			So(row["F1"], ShouldAlmostEqual, 0.0, 1e-9)
			So(row["F2"], ShouldAlmostEqual, 0.0, 1e-9)
		})
	})

	Convey("Given a row whose maximum is negative", t, func() {
		m, err := collab.Fit(ratings([3]any{"C1", "F1", -2.0}))
		So(err, ShouldBeNil)

		Convey("Then values are divided by 1 and not clamped", func() {
			row, ok := m.PredictForClient("C1")
			So(ok, ShouldBeTrue)
			So(row["F1"], ShouldAlmostEqual, -2.0, 1e-9)
		})
	})

	Convey("Given a rating that is not a finite number", t, func() {
		_, err := collab.Fit(ratings(
			[3]any{"C1", "F1", math.NaN()},
			[3]any{"C1", "F2", 4.0},
		))
		So(errors.Is(err, collab.ErrInvalidRating), ShouldBeTrue)

		_, err = collab.Fit(ratings([3]any{"C1", "F1", math.Inf(-1)}))
		So(errors.Is(err, collab.ErrInvalidRating), ShouldBeTrue)
	})

	Convey("Given no interactions", t, func() {
		m, err := collab.Fit(nil)
		So(err, ShouldBeNil)
		So(m, ShouldBeNil)

		Convey("Then the nil model answers without signal", func() {
			_, ok := m.PredictForClient("C1")
			So(ok, ShouldBeFalse)
			So(m.Clients(), ShouldEqual, 0)
			So(m.Rank(), ShouldEqual, 0)
			So(m.KnowsClient("C1"), ShouldBeFalse)
		})
	})
}
