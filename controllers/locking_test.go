package controllers

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/testutil"
)

// recordSQL opens a postgres dialect in dry-run mode and collects every query and delete it renders.
func recordSQL(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	db, err := gorm.Open(postgres.Open("host=localhost user=labubananas dbname=labubananas sslmode=disable"),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("Failed to open dry-run database: %v", err)
	}
	var statements []string
	record := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:record", record); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("test:record", record); err != nil {
		t.Fatal(err)
	}
	return db, &statements
}

func TestLockSharedRendersForShare(t *testing.T) {
	db, statements := recordSQL(t)

	if err := lockShared(db, &models.Post{}, 7); err != nil {
		t.Fatalf("lockShared() error = %v", err)
	}
	if len(*statements) != 1 || !strings.HasSuffix((*statements)[0], "FOR SHARE") {
		t.Errorf("statements = %q, want one SELECT ... FOR SHARE", *statements)
	}
}

func TestCascadeLocksParentsBeforeChildren(t *testing.T) {
	tests := []struct {
		name   string
		run    func(tx *gorm.DB) error
		parent string
	}{
		{"posts", func(tx *gorm.DB) error { return deletePosts(tx, []uint{1, 2}) }, `FROM "posts"`},
		{"polls", func(tx *gorm.DB) error { return deletePolls(tx, []uint{3}) }, `FROM "polls"`},
		{"events", func(tx *gorm.DB) error { return deleteEvents(tx, []uint{4}) }, `FROM "events"`},
		{"union", func(tx *gorm.DB) error { return deleteUnion(tx, 5) }, `FROM "unions"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, statements := recordSQL(t)
			if err := tt.run(db); err != nil {
				t.Fatalf("delete error = %v", err)
			}
			if len(*statements) == 0 {
				t.Fatal("no statements rendered")
			}
			first := (*statements)[0]
			if !strings.Contains(first, tt.parent) || !strings.HasSuffix(first, "FOR UPDATE") {
				t.Errorf("first statement = %q, want a %s ... FOR UPDATE lock", first, tt.parent)
			}
			for _, stmt := range (*statements)[1:] {
				if strings.HasPrefix(stmt, "DELETE") {
					return
				}
			}
			t.Errorf("statements = %q, want deletes after the lock", *statements)
		})
	}
}

func TestLockSharedAfterParentDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	union := testutil.CreateTestUnion(t, db, "Short lived")
	post := testutil.CreateTestPost(t, db, union.ID, "post")

	if err := db.Transaction(func(tx *gorm.DB) error { return deleteUnion(tx, union.ID) }); err != nil {
		t.Fatalf("deleteUnion() error = %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockShared(tx, &models.Post{}, post.ID); err != nil {
			return err
		}
		return tx.Create(&models.Comment{PostID: post.ID, UserID: 1, Content: "late"}).Error
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("insert under deleted post error = %v, want ErrRecordNotFound", err)
	}
	if n := count(t, db, &models.Comment{}); n != 0 {
		t.Errorf("orphan comments = %d", n)
	}
}
