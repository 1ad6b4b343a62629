package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gallery/internal/mediatypes"
)

// Integration tests for database operations with real SQLite database

func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seed writes folders and images in one committed batch. Folders must be
// listed parent first.
func seed(t *testing.T, db *Database, folders [][2]string, images [][2]string) {
	t.Helper()

	b := db.NewBatch(context.Background(), 0)
	for _, f := range folders {
		if err := b.InsertFolder(f[0], f[1], 1); err != nil {
			t.Fatalf("InsertFolder(%s, %s) failed: %v", f[0], f[1], err)
		}
	}
	for i, img := range images {
		if err := b.UpsertImage(img[0], img[1], int64(100+i), int64(1000-i)); err != nil {
			t.Fatalf("UpsertImage(%s, %s) failed: %v", img[0], img[1], err)
		}
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func imagePaths(t *testing.T, db *Database) []string {
	t.Helper()

	imgs, err := db.Images(context.Background())
	if err != nil {
		t.Fatalf("Images failed: %v", err)
	}
	var out []string
	for _, img := range imgs {
		out = append(out, img.Path)
	}
	return out
}

func folderPaths(t *testing.T, db *Database) []string {
	t.Helper()

	folders, err := db.Folders(context.Background())
	if err != nil {
		t.Fatalf("Folders failed: %v", err)
	}
	var out []string
	for _, f := range folders {
		out = append(out, f.Path)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
}

func TestNewDatabaseSeedsRootOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(context.Background(), dbPath)
		if err != nil {
			t.Fatalf("New() #%d failed: %v", i, err)
		}
		folders, err := db.Folders(context.Background())
		db.Close()
		if err != nil {
			t.Fatalf("Folders failed: %v", err)
		}
		if len(folders) != 1 {
			t.Fatalf("open #%d: got %d folders, want 1", i, len(folders))
		}
		root := folders[0]
		if root.Path != "/" || root.Name != "." || root.Dir.Valid || root.Mtime != 0 {
			t.Errorf("unexpected root row: %+v", root)
		}
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "sub", "test.db")

	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("Expected error opening database in a missing directory")
	}
}

func TestFolderAndImageMtimes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db,
		[][2]string{{"/", "a"}, {"/", "b"}, {"/a", "c"}},
		[][2]string{{"/", "x.jpg"}, {"/a", "y.jpg"}})

	folders, err := db.FolderMtimes(ctx, "/")
	if err != nil {
		t.Fatalf("FolderMtimes failed: %v", err)
	}
	if len(folders) != 2 || folders["a"] != 1 || folders["b"] != 1 {
		t.Errorf("FolderMtimes(/) = %v", folders)
	}

	images, err := db.ImageMtimes(ctx, "/a")
	if err != nil {
		t.Fatalf("ImageMtimes failed: %v", err)
	}
	if len(images) != 1 || images["y.jpg"] != 101 {
		t.Errorf("ImageMtimes(/a) = %v", images)
	}

	empty, err := db.ImageMtimes(ctx, "/nowhere")
	if err != nil {
		t.Fatalf("ImageMtimes failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ImageMtimes(/nowhere) = %v, want empty", empty)
	}
}

func TestBatchAutoCommits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db, [][2]string{{"/", "a"}}, nil)

	b := db.NewBatch(ctx, 3)
	for _, name := range []string{"1.jpg", "2.jpg"} {
		if err := b.UpsertImage("/a", name, 1, 1); err != nil {
			t.Fatalf("UpsertImage failed: %v", err)
		}
	}
	if b.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", b.Pending())
	}
	if err := b.UpsertImage("/a", "3.jpg", 1, 1); err != nil {
		t.Fatalf("UpsertImage failed: %v", err)
	}
	if b.Pending() != 0 {
		t.Errorf("Pending() after reaching max = %d, want 0", b.Pending())
	}
	if err := b.UpsertImage("/a", "4.jpg", 1, 1); err != nil {
		t.Fatalf("UpsertImage failed: %v", err)
	}
	if err := b.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	want := []string{"/a/1.jpg", "/a/2.jpg", "/a/3.jpg"}
	if got := imagePaths(t, db); !equalStrings(got, want) {
		t.Errorf("images = %v, want %v", got, want)
	}
}

func TestBatchCommitWithoutStatements(t *testing.T) {
	db := setupTestDB(t)

	b := db.NewBatch(context.Background(), 10)
	if err := b.Commit(); err != nil {
		t.Errorf("Commit on empty batch failed: %v", err)
	}
	if err := b.Rollback(); err != nil {
		t.Errorf("Rollback on empty batch failed: %v", err)
	}
}

func TestUpsertImageIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, ts := range []int64{5, 9} {
		b := db.NewBatch(ctx, 0)
		if err := b.UpsertImage("/", "a.jpg", ts*10, ts); err != nil {
			t.Fatalf("UpsertImage failed: %v", err)
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	img, err := db.GetImage(ctx, "/a.jpg")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if img.Mtime != 90 || img.Timestamp != 9 || img.Dir != "/" || img.Name != "a.jpg" {
		t.Errorf("unexpected image row: %+v", img)
	}
}

func TestUpdateImage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db, nil, [][2]string{{"/", "a.jpg"}})

	b := db.NewBatch(ctx, 0)
	if err := b.UpdateImage("/", "a.jpg", 77, 66); err != nil {
		t.Fatalf("UpdateImage failed: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	img, err := db.GetImage(ctx, "/a.jpg")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if img.Mtime != 77 || img.Timestamp != 66 {
		t.Errorf("UpdateImage did not apply: %+v", img)
	}
}

func TestGetImageNotFound(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetImage(context.Background(), "/missing.jpg"); err != ErrNotFound {
		t.Errorf("GetImage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteImage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db, nil, [][2]string{{"/", "a.jpg"}, {"/", "b.jpg"}})

	b := db.NewBatch(ctx, 0)
	if err := b.DeleteImage("/", "a.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := imagePaths(t, db); !equalStrings(got, []string{"/b.jpg"}) {
		t.Errorf("images = %v, want [/b.jpg]", got)
	}
}

func TestDeleteFolderTreeSparesSiblings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db,
		[][2]string{
			{"/", "folderB"}, {"/folderB", "deep"}, {"/folderB/deep", "deeper"},
			{"/", "folderB2"}, {"/", "folderb"}, {"/", "folderB-x"},
		},
		[][2]string{
			{"/folderB", "1.jpg"}, {"/folderB/deep", "2.jpg"}, {"/folderB/deep/deeper", "3.jpg"},
			{"/folderB2", "4.jpg"}, {"/folderb", "5.jpg"}, {"/folderB-x", "6.jpg"}, {"/", "7.jpg"},
		})

	b := db.NewBatch(ctx, 0)
	if err := b.DeleteFolderTree("/", "folderB"); err != nil {
		t.Fatalf("DeleteFolderTree failed: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	wantFolders := []string{"/", "/folderB-x", "/folderB2", "/folderb"}
	if got := folderPaths(t, db); !equalStrings(got, wantFolders) {
		t.Errorf("folders = %v, want %v", got, wantFolders)
	}
	wantImages := []string{"/7.jpg", "/folderB-x/6.jpg", "/folderB2/4.jpg", "/folderb/5.jpg"}
	if got := imagePaths(t, db); !equalStrings(got, wantImages) {
		t.Errorf("images = %v, want %v", got, wantImages)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := setupTestDB(t)

	b := db.NewBatch(context.Background(), 0)
	defer b.Rollback()

	if err := b.UpsertImage("/no-such-folder", "a.jpg", 1, 1); err == nil {
		t.Error("Expected foreign key violation for image in unknown folder")
	}
}

func TestFolderMediaSorting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// seed assigns mtime 100+i and timestamp 1000-i
	seed(t, db, [][2]string{{"/", "a"}},
		[][2]string{{"/a", "b.jpg"}, {"/a", "A.jpg"}, {"/a", "c.mp4"}})

	tests := []struct {
		name    string
		sort    mediatypes.SortField
		reverse bool
		want    []string
	}{
		{name: "name", sort: mediatypes.SortByName, want: []string{"A.jpg", "b.jpg", "c.mp4"}},
		{name: "name reversed", sort: mediatypes.SortByName, reverse: true, want: []string{"c.mp4", "b.jpg", "A.jpg"}},
		{name: "taken", sort: mediatypes.SortByTaken, want: []string{"c.mp4", "A.jpg", "b.jpg"}},
		{name: "modified", sort: mediatypes.SortByModified, want: []string{"b.jpg", "A.jpg", "c.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := db.FolderMedia(ctx, MediaQuery{Dir: "/a", Sort: tt.sort, Reverse: tt.reverse})
			if err != nil {
				t.Fatalf("FolderMedia failed: %v", err)
			}
			var got []string
			for _, item := range page.Items {
				got = append(got, item.Name)
			}
			if !equalStrings(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			if page.TotalItems != 3 || page.Page != 1 || page.PageSize != DefaultPageSize {
				t.Errorf("unexpected page metadata: %+v", page)
			}
		})
	}
}

func TestFolderMediaItemType(t *testing.T) {
	db := setupTestDB(t)

	seed(t, db, nil, [][2]string{{"/", "clip.mp4"}, {"/", "pic.jpg"}})

	page, err := db.FolderMedia(context.Background(), MediaQuery{Dir: "/"})
	if err != nil {
		t.Fatalf("FolderMedia failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	if page.Items[0].Type != mediatypes.FileTypeVideo || page.Items[1].Type != mediatypes.FileTypeImage {
		t.Errorf("unexpected types: %s, %s", page.Items[0].Type, page.Items[1].Type)
	}
}

func TestFolderMediaRandomIsSeeded(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var images [][2]string
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		images = append(images, [2]string{"/", n + ".jpg"})
	}
	seed(t, db, nil, images)

	order := func(seed string) []string {
		page, err := db.FolderMedia(ctx, MediaQuery{Dir: "/", Sort: mediatypes.SortByRandom, Seed: seed})
		if err != nil {
			t.Fatalf("FolderMedia failed: %v", err)
		}
		var out []string
		for _, item := range page.Items {
			out = append(out, item.Path)
		}
		return out
	}

	first := order("42")
	if again := order("42"); !equalStrings(first, again) {
		t.Errorf("same seed gave different orders: %v vs %v", first, again)
	}
	if len(first) != 10 {
		t.Errorf("got %d items, want 10", len(first))
	}
}

func TestFolderMediaPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db, nil, [][2]string{{"/", "1.jpg"}, {"/", "2.jpg"}, {"/", "3.jpg"}, {"/", "4.jpg"}, {"/", "5.jpg"}})

	page, err := db.FolderMedia(ctx, MediaQuery{Dir: "/", Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("FolderMedia failed: %v", err)
	}
	if page.TotalItems != 5 || page.TotalPages != 3 {
		t.Errorf("TotalItems=%d TotalPages=%d, want 5 and 3", page.TotalItems, page.TotalPages)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "5.jpg" {
		t.Errorf("last page = %+v, want [5.jpg]", page.Items)
	}
}

func TestFolderMediaRecursive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db,
		[][2]string{{"/", "a"}, {"/a", "b"}, {"/", "ab"}},
		[][2]string{{"/a", "1.jpg"}, {"/a/b", "2.jpg"}, {"/ab", "3.jpg"}, {"/", "4.jpg"}})

	page, err := db.FolderMediaRecursive(ctx, MediaQuery{Dir: "/a"})
	if err != nil {
		t.Fatalf("FolderMediaRecursive failed: %v", err)
	}
	var got []string
	for _, item := range page.Items {
		got = append(got, item.Path)
	}
	if want := []string{"/a/1.jpg", "/a/b/2.jpg"}; !equalStrings(got, want) {
		t.Errorf("recursive(/a) = %v, want %v", got, want)
	}

	all, err := db.FolderMediaRecursive(ctx, MediaQuery{Dir: "/"})
	if err != nil {
		t.Fatalf("FolderMediaRecursive failed: %v", err)
	}
	if all.TotalItems != 4 {
		t.Errorf("recursive(/) TotalItems = %d, want 4", all.TotalItems)
	}
}

func TestFolderFolders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed(t, db,
		[][2]string{{"/", "beta"}, {"/", "Alpha"}, {"/beta", "inner"}},
		[][2]string{{"/beta", "z.jpg"}, {"/beta", "m.jpg"}})

	folders, err := db.FolderFolders(ctx, "/", mediatypes.SortByName, false)
	if err != nil {
		t.Fatalf("FolderFolders failed: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("got %d folders, want 2", len(folders))
	}
	if folders[0].Name != "Alpha" || folders[0].Cover != "" || folders[0].ImageCount != 0 {
		t.Errorf("unexpected first folder: %+v", folders[0])
	}
	if folders[1].Name != "beta" || folders[1].Cover != "/beta/m.jpg" || folders[1].ImageCount != 2 {
		t.Errorf("unexpected second folder: %+v", folders[1])
	}

	random, err := db.FolderFolders(ctx, "/", mediatypes.SortByRandom, false)
	if err != nil {
		t.Fatalf("FolderFolders(random) failed: %v", err)
	}
	if len(random) != 2 {
		t.Errorf("FolderFolders(random) returned %d folders, want 2", len(random))
	}
}

func TestCounts(t *testing.T) {
	db := setupTestDB(t)

	seed(t, db, [][2]string{{"/", "a"}}, [][2]string{{"/a", "1.jpg"}, {"/", "2.jpg"}})

	c, err := db.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if c.Folders != 2 || c.Images != 2 {
		t.Errorf("Counts() = %+v, want 2 folders and 2 images", c)
	}
}
