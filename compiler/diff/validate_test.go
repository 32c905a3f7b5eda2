package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator/compiler/diff"
	"github.com/syssam/migrator/migrate"
)

func riskyOperations() *migrate.Builder {
	b := migrate.NewBuilder()
	b.DropTable("Legacy")
	b.DropColumn("Fax", "Customer")
	b.DropIndex("IX_Customer_Fax", "Customer")
	b.AlterColumn("Name", "Customer", "string", migrate.MaxLength(50),
		migrate.OldColumn("*string", migrate.Nullable(), migrate.MaxLength(100)))
	b.AddColumn("Code", "Customer", "string")
	b.AddColumn("Note", "Customer", "*string", migrate.Nullable())
	b.CreateIndex("IX_Customer_Code", "Customer", []string{"Code"}, migrate.Unique())
	return b
}

func TestValidate(t *testing.T) {
	result := diff.Validate(riskyOperations().Operations())

	require.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
	var errs []string
	for _, e := range result.Errors {
		errs = append(errs, e.Error())
	}
	assert.Equal(t, []string{
		"Legacy: table will be dropped",
		"Customer.Fax: column will be dropped",
		`Customer: index "IX_Customer_Fax" will be dropped`,
		"Customer.Name: column changing from NULL to NOT NULL may fail if column has NULL values",
	}, errs)

	var warnings []string
	for _, w := range result.Warnings {
		warnings = append(warnings, w.Error())
	}
	assert.Equal(t, []string{
		"Customer.Name: column type changing from *string to string",
		"Customer.Name: column size reducing from 100 to 50 may truncate data",
		"Customer.Code: new NOT NULL column without default value may fail if table has data",
		`Customer: unique index "IX_Customer_Code" may fail if duplicate values exist`,
	}, warnings)
}

func TestValidate_Allow(t *testing.T) {
	ops := riskyOperations().Operations()

	result := diff.Validate(ops, diff.AllowDropTable(), diff.AllowDropColumn())
	assert.Len(t, result.Errors, 2)

	result = diff.Validate(ops, diff.AllowAll())
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 8)
	assert.True(t, result.HasBreakingChanges())
	assert.Contains(t, result.String(), "Legacy: table will be dropped [BREAKING]")
}

func TestValidate_Clean(t *testing.T) {
	b := migrate.NewBuilder()
	b.AddColumn("Code", "Customer", "string", migrate.DefaultValue(""))
	result := diff.Validate(b.Operations())
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
	assert.Equal(t, "No issues found", result.String())
}
