package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vector scores one", func(t *testing.T) {
		v := model.Embedding{0.3, -1.2, 4.5, 0.01}
		gt.Value(t, model.CosineSimilarity(v, v)).Equal(1.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := model.Embedding{1, 2, 3}
		b := model.Embedding{-2, 0.5, 7}
		gt.Value(t, model.CosineSimilarity(a, b)).Equal(model.CosineSimilarity(b, a))
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		gt.Value(t, model.CosineSimilarity(model.Embedding{1, 0}, model.Embedding{0, 1})).Equal(0.0)
	})

	t.Run("opposite vectors score minus one", func(t *testing.T) {
		got := model.CosineSimilarity(model.Embedding{1, 2}, model.Embedding{-1, -2})
		gt.B(t, math.Abs(got+1) < 1e-12).True()
	})

	t.Run("large magnitudes stay finite", func(t *testing.T) {
		a := model.Embedding{1e200, 2e200, -3e200}
		b := model.Embedding{2e200, 4e200, -6e200}
		got := model.CosineSimilarity(a, b)
		gt.B(t, math.Abs(got-1) < 1e-12).True()
		gt.Value(t, model.CosineSimilarity(a, a)).Equal(1.0)
	})

	t.Run("tiny magnitudes do not underflow", func(t *testing.T) {
		a := model.Embedding{1e-200, 0}
		b := model.Embedding{1e-200, 1e-200}
		got := model.CosineSimilarity(a, b)
		gt.B(t, math.Abs(got-1/math.Sqrt2) < 1e-12).True()
	})

	t.Run("result stays within unit range", func(t *testing.T) {
		vs := []model.Embedding{
			{0.1, 0.2, 0.3},
			{1e150, -1e-150, 3},
			{-7, 7, -7},
			{0.3333333333333333, 0.1, 1e-10},
		}
		for _, a := range vs {
			for _, b := range vs {
				got := model.CosineSimilarity(a, b)
				gt.B(t, got >= -1 && got <= 1).True()
			}
		}
	})

	t.Run("degenerate input scores zero", func(t *testing.T) {
		cases := map[string][2]model.Embedding{
			"empty":      {{}, {}},
			"nil":        {nil, {1, 2}},
			"mismatched": {{1, 2, 3}, {1, 2}},
			"zero norm":  {{0, 0, 0}, {1, 2, 3}},
			"infinite":   {{math.Inf(1), 1}, {1, 2}},
			"nan":        {{math.NaN(), 1}, {1, 2}},
		}
		for name, c := range cases {
			t.Run(name, func(t *testing.T) {
				gt.Value(t, model.CosineSimilarity(c[0], c[1])).Equal(0.0)
			})
		}
	})
}

func TestEmbedding_Normalize(t *testing.T) {
	v := model.Embedding{3, 4}.Normalize()
	gt.Value(t, v[0]).Equal(0.6)
	gt.Value(t, v[1]).Equal(0.8)

	zero := model.Embedding{0, 0}.Normalize()
	gt.Array(t, zero).Equal(model.Embedding{0, 0})
}
