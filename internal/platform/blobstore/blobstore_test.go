package blobstore

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"panel.pdf", "panel.pdf", false},
		{"../../etc/passwd", "passwd", false},
		{"..\\..\\windows\\system32", "system32", false},
		{"reports/panel.pdf", "panel.pdf", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("SanitizeFileName(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("SanitizeFileName(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	disk, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	return map[string]Store{"disk": disk, "memory": NewMemoryStore()}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			stored, err := s.Save(ctx, "panel.pdf", strings.NewReader("report body"))
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if stored != "panel.pdf" {
				t.Errorf("expected stored name panel.pdf, got %q", stored)
			}

			rc, err := s.Open(ctx, stored)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != "report body" {
				t.Errorf("unexpected content %q", data)
			}

			ok, err := s.Exists(ctx, stored)
			if err != nil || !ok {
				t.Errorf("exists = %v, %v; want true, nil", ok, err)
			}
		})
	}
}

func TestStoreCollisionGetsUniqueName(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.Save(ctx, "panel.pdf", strings.NewReader("one"))
			if err != nil {
				t.Fatalf("first save: %v", err)
			}
			second, err := s.Save(ctx, "panel.pdf", strings.NewReader("two"))
			if err != nil {
				t.Fatalf("second save: %v", err)
			}
			if first == second {
				t.Fatalf("expected distinct stored names, both %q", first)
			}
			if !strings.HasSuffix(second, "panel.pdf") {
				t.Errorf("renamed file should keep original suffix, got %q", second)
			}
		})
	}
}

func TestDiskStoreConcurrentSameNameSaves(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	const savers = 8
	var wg sync.WaitGroup
	names := make([]string, savers)
	errs := make([]error, savers)
	for i := 0; i < savers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i], errs[i] = disk.Save(ctx, "panel.pdf", strings.NewReader("body"))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, savers)
	for i := 0; i < savers; i++ {
		if errs[i] != nil {
			t.Fatalf("save %d: %v", i, errs[i])
		}
		if seen[names[i]] {
			t.Fatalf("stored name %q handed out twice", names[i])
		}
		seen[names[i]] = true
		if !strings.HasSuffix(names[i], "panel.pdf") {
			t.Errorf("stored name should keep original suffix, got %q", names[i])
		}
	}
}

func TestStoreOpenMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Open(ctx, "nope.pdf"); err != ErrFileNotFound {
				t.Errorf("expected ErrFileNotFound, got %v", err)
			}
		})
	}
}

func TestStoreSaveEscapingNameLandsInBase(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	stored, err := disk.Save(ctx, "../outside.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored != "outside.pdf" {
		t.Errorf("expected traversal stripped, got %q", stored)
	}
	ok, err := disk.Exists(ctx, "outside.pdf")
	if err != nil || !ok {
		t.Errorf("file should exist inside base dir: %v, %v", ok, err)
	}
}
