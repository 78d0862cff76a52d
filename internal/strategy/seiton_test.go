package strategy_test

import (
	"os"
	"path/filepath"
	"testing"

	"kirei/internal/logging"
	"kirei/internal/strategy"
	"kirei/internal/testsupport"
	"kirei/internal/transfer"
)

func TestExtensionMoveRoutesFirstMatch(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	misc := filepath.Join(base, "misc")

	cfg := testsupport.NewConfig(t,
		testsupport.WithSeitonRule("documents", docs, "pdf", "txt"),
		testsupport.WithSeitonRule("catch-all", misc, "pdf", "jpg"),
	)

	source := filepath.Join(base, "inbox", "report.pdf")
	testsupport.WriteFileContent(t, source, []byte("pdf"))

	mover := strategy.NewExtensionMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	mover.Apply(source)

	if _, err := os.Stat(filepath.Join(docs, "report.pdf")); err != nil {
		t.Fatalf("file not routed to first matching rule: %v", err)
	}
	if _, err := os.Stat(filepath.Join(misc, "report.pdf")); !os.IsNotExist(err) {
		t.Fatal("file must not reach later rules")
	}
}

func TestExtensionMoveMatchesCaseInsensitive(t *testing.T) {
	base := t.TempDir()
	images := filepath.Join(base, "images")

	cfg := testsupport.NewConfig(t,
		testsupport.WithSeitonRule("images", images, "jpg"),
	)

	source := filepath.Join(base, "inbox", "PHOTO.JPG")
	testsupport.WriteFileContent(t, source, []byte("jpg"))

	mover := strategy.NewExtensionMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	mover.Apply(source)

	if _, err := os.Stat(filepath.Join(images, "PHOTO.JPG")); err != nil {
		t.Fatalf("upper-case extension not matched: %v", err)
	}
}

func TestExtensionMoveSkipsUnmatched(t *testing.T) {
	base := t.TempDir()
	cfg := testsupport.NewConfig(t,
		testsupport.WithSeitonRule("documents", filepath.Join(base, "docs"), "pdf"),
	)

	source := filepath.Join(base, "inbox", "movie.mkv")
	testsupport.WriteFileContent(t, source, []byte("mkv"))

	mover := strategy.NewExtensionMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	mover.Apply(source)

	if _, err := os.Stat(source); err != nil {
		t.Fatalf("unmatched file must stay in place: %v", err)
	}
}

func TestExtensionMoveSkipsExtensionless(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	cfg := testsupport.NewConfig(t,
		testsupport.WithSeitonRule("documents", docs, "pdf"),
	)

	for _, name := range []string{"README", ".bashrc"} {
		source := filepath.Join(base, "inbox", name)
		testsupport.WriteFileContent(t, source, []byte("data"))

		mover := strategy.NewExtensionMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
		mover.Apply(source)

		if _, err := os.Stat(source); err != nil {
			t.Fatalf("%s must stay in place: %v", name, err)
		}
	}
}

func TestExtensionMoveToleratesVanishedFile(t *testing.T) {
	base := t.TempDir()
	cfg := testsupport.NewConfig(t,
		testsupport.WithSeitonRule("documents", filepath.Join(base, "docs"), "pdf"),
	)

	mover := strategy.NewExtensionMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	mover.Apply(filepath.Join(base, "inbox", "gone.pdf"))
}
