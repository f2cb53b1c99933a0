package sqlexpr_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/canonical/sqlexpr"
)

// buildReferenceFilter composes one expression exercising every node shape,
// rendered per dialect against the golden files in testdata.
func buildReferenceFilter(b *sqlexpr.Builder, binder *sqlexpr.Binder) sqlexpr.Expression {
	return b.AndX(
		b.Eq("p.status", binder.MustBind("active", sqlexpr.TypeString)),
		b.OrX(
			b.In("p.id", binder.MustBind([]int{10, 20, 30}, sqlexpr.TypeIntArray)),
			b.AndX(
				b.IsNull("p.deleted_at"),
				b.Gte("p.age", binder.MustBind(21, sqlexpr.TypeInt)),
			),
		),
		b.InSet("p.tags", binder.MustBind("vip", sqlexpr.TypeString)),
	)
}

func TestRenderGolden(t *testing.T) {
	dialects := []struct {
		name    string
		dialect sqlexpr.Dialect
	}{
		{"mysql_filter", sqlexpr.MySQLDialect{}},
		{"sqlite_filter", sqlexpr.SQLiteDialect{}},
		{"postgres_filter", sqlexpr.PostgresDialect{}},
	}

	g := goldie.New(t)
	for _, d := range dialects {
		t.Run(d.name, func(t *testing.T) {
			b := sqlexpr.NewBuilder(d.dialect)
			binder := sqlexpr.NewBinder()
			sql, err := sqlexpr.Render(buildReferenceFilter(b, binder))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			g.Assert(t, d.name, []byte(sql))
		})
	}
}
