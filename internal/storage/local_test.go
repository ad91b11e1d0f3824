package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"legalreview/internal/storage"
)

var _ = Describe("LocalStorage", func() {
	var (
		ctx   context.Context
		root  string
		store *storage.LocalStorage
	)

	BeforeEach(func() {
		ctx = context.Background()
		root = GinkgoT().TempDir()

		var err error
		store, err = storage.NewLocalStorage(root)
		Expect(err).NotTo(HaveOccurred())
	})

	It("saves, opens and deletes objects", func() {
		n, err := store.Save(ctx, "p/doc.txt", strings.NewReader("hello"), 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(5)))

		r, err := store.Open(ctx, "p/doc.txt")
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Close()).To(Succeed())
		Expect(string(body)).To(Equal("hello"))

		Expect(store.Delete(ctx, "p/doc.txt")).To(Succeed())
		_, err = store.Open(ctx, "p/doc.txt")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("accepts an object of exactly the limit", func() {
		_, err := store.Save(ctx, "exact.txt", strings.NewReader("12345"), 5)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects oversized objects and removes the partial file", func() {
		_, err := store.Save(ctx, "big.txt", strings.NewReader("123456"), 5)
		Expect(err).To(MatchError(storage.ErrFileTooLarge))

		_, statErr := os.Stat(filepath.Join(root, "big.txt"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("ignores deletes of missing objects", func() {
		Expect(store.Delete(ctx, "missing.txt")).To(Succeed())
	})

	It("refuses keys escaping the root", func() {
		_, err := store.Save(ctx, "../escape.txt", strings.NewReader("x"), 0)
		Expect(err).To(MatchError(storage.ErrInvalidKey))
	})

	It("fetches the stored file in place", func() {
		_, err := store.Save(ctx, "a/b.pdf", strings.NewReader("%PDF"), 0)
		Expect(err).NotTo(HaveOccurred())

		p, cleanup, err := store.Fetch(ctx, "a/b.pdf")
		Expect(err).NotTo(HaveOccurred())
		defer cleanup()
		Expect(p).To(Equal(filepath.Join(root, "a", "b.pdf")))

		_, _, err = store.Fetch(ctx, "a/missing.pdf")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})
})

var _ = Describe("keys", func() {
	It("builds document keys from the base filename", func() {
		projectID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
		documentID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

		Expect(storage.DocumentKey(projectID, documentID, "../../etc/contract.pdf")).
			To(Equal("11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222_contract.pdf"))
		Expect(storage.DocumentKey(projectID, documentID, `C:\docs\nda.docx`)).
			To(HaveSuffix("_nda.docx"))
	})
})
