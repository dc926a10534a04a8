package benchmarks

import (
	"fmt"
	"testing"

	"github.com/zoobzio/spot"
)

func postEntity() *spot.Entity {
	return &spot.Entity{
		Name:  "post",
		Table: "posts",
		Fields: []spot.Field{
			{Name: "id", Type: spot.TypeInteger, Primary: true},
			{Name: "title", Type: spot.TypeString, Fulltext: true},
			{Name: "status", Type: spot.TypeString},
			{Name: "author", Column: "author_id", Type: spot.TypeInteger},
			{Name: "created", Column: "date_created", Type: spot.TypeDatetime},
			{Name: "views", Type: spot.TypeInteger},
		},
		Options: map[string]string{spot.OptionEngine: "MyISAM"},
	}
}

func newMapper(b *testing.B, p spot.Platform) *spot.EntityMapper {
	b.Helper()
	m, err := spot.NewMapper(postEntity(), spot.NewConnection(nil, p))
	if err != nil {
		b.Fatal(err)
	}
	return m
}

// BenchmarkFactoryCreation measures factory initialization cost.
func BenchmarkFactoryCreation(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = spot.NewFactory()
	}
}

// BenchmarkQueryCreation measures query construction from a shared factory.
func BenchmarkQueryCreation(b *testing.B) {
	factory := spot.NewFactory()
	m := newMapper(b, spot.MySQL())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = factory.Query(m)
	}
}

// BenchmarkSimpleRender measures rendering a single equality condition.
func BenchmarkSimpleRender(b *testing.B) {
	factory := spot.NewFactory()
	m := newMapper(b, spot.MySQL())
	conds := spot.Cond("status", "published")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := factory.Query(m).Where(conds).ToSQL(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkComplexQuery measures a query using most builder features.
func BenchmarkComplexQuery(b *testing.B) {
	for _, p := range []spot.Platform{spot.MySQL(), spot.Postgres(), spot.SQLite()} {
		b.Run(p.Family().String(), func(b *testing.B) {
			factory := spot.NewFactory()
			m := newMapper(b, p)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_, _, err := factory.Query(m).
					Select("id", "title", "COUNT(views)").
					Where(spot.Cond("status", "published", "views >=", 10, "author in", []int{1, 2, 3})).
					OrWhere(spot.Cond("title :like", "Go%")).
					Group("author").
					Having(spot.Cond("COUNT(views) >", 1)).
					Order(spot.Desc("created"), spot.Asc("title")).
					Limit(20, 40).
					ToSQL()
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkConditionGroups measures rendering as the group grows.
func BenchmarkConditionGroups(b *testing.B) {
	for _, size := range []int{1, 5, 20} {
		b.Run(fmt.Sprintf("conditions=%d", size), func(b *testing.B) {
			factory := spot.NewFactory()
			m := newMapper(b, spot.MySQL())

			var conds spot.Conditions
			for i := 0; i < size; i++ {
				conds = conds.Add("views !=", i)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, _, err := factory.Query(m).Where(conds, spot.Or).ToSQL(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSearch measures fulltext and LIKE search rendering.
func BenchmarkSearch(b *testing.B) {
	for _, p := range []spot.Platform{spot.MySQL(), spot.SQLite()} {
		b.Run(p.Family().String(), func(b *testing.B) {
			factory := spot.NewFactory()
			m := newMapper(b, p)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, _, err := factory.Query(m).Search([]string{"title"}, "go").ToSQL(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkOperatorResolve measures registry lookup of a built-in operator.
func BenchmarkOperatorResolve(b *testing.B) {
	registry := spot.NewOperatorRegistry()

	b.Run("builtin", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, ok := registry.Resolve(">="); !ok {
				b.Fatal("operator not found")
			}
		}
	})

	b.Run("missing", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = registry.Resolve(":missing")
		}
	})
}

// BenchmarkConcurrentRender measures rendering from many goroutines sharing one factory.
func BenchmarkConcurrentRender(b *testing.B) {
	factory := spot.NewFactory()
	m := newMapper(b, spot.MySQL())
	conds := spot.Cond("status", "published", "views >", 5)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := factory.Query(m).Where(conds).ToSQL(); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkDispatch measures method lookup through the extension tier.
func BenchmarkDispatch(b *testing.B) {
	factory := spot.NewFactory()
	err := factory.Extensions().Register("popular", func(q *spot.Query, _ ...any) (any, error) {
		return q.Where(spot.Cond("views >", 100)), nil
	})
	if err != nil {
		b.Fatal(err)
	}
	m := newMapper(b, spot.MySQL())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := factory.Query(m).Call(b.Context(), "popular"); err != nil {
			b.Fatal(err)
		}
	}
}
