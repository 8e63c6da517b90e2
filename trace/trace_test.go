package trace_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

var _ = Describe("Trace", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "trace-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("record encoding", func() {
		It("should lay fields out little-endian in 12 bytes", func() {
			item := trace.Item{
				Type:  trace.TypeStore,
				SRegA: 1,
				SRegB: 2,
				DReg:  3,
				PC:    0x00400010,
				Addr:  0x10008000,
			}

			buf := make([]byte, trace.RecordSize)
			item.Encode(buf)
			Expect(buf).To(Equal([]byte{
				0x04, 0x01, 0x02, 0x03,
				0x10, 0x00, 0x40, 0x00,
				0x00, 0x80, 0x00, 0x10,
			}))
			Expect(trace.Decode(buf)).To(Equal(item))
		})

		It("should name record types", func() {
			Expect(trace.TypeLoad.String()).To(Equal("LOAD"))
			Expect(trace.TypeJRType.String()).To(Equal("JRTYPE"))
			Expect(trace.Type(42).String()).To(Equal("TYPE(42)"))
		})
	})

	Describe("AccessKind", func() {
		It("should map loads and stores", func() {
			kind, ok := trace.Load(0x10).AccessKind()
			Expect(ok).To(BeTrue())
			Expect(kind).To(Equal(cache.Load))

			kind, ok = trace.Store(0x10).AccessKind()
			Expect(ok).To(BeTrue())
			Expect(kind).To(Equal(cache.Store))
		})

		It("should ignore every other record type", func() {
			for _, t := range []trace.Type{
				trace.TypeNOP, trace.TypeRType, trace.TypeIType, trace.TypeBranch,
				trace.TypeJType, trace.TypeSpecial, trace.TypeJRType, trace.Type(99),
			} {
				_, ok := trace.Item{Type: t}.AccessKind()
				Expect(ok).To(BeFalse(), t.String())
			}
		})
	})

	Describe("files", func() {
		items := []trace.Item{
			{Type: trace.TypeRType, PC: 0x400000},
			trace.Load(0x1000),
			trace.Store(0x1004),
			{Type: trace.TypeBranch, PC: 0x400008},
		}

		It("should read back what was written", func() {
			path := filepath.Join(tempDir, "sample.tr")
			Expect(trace.WriteFile(path, items)).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(Equal(int64(len(items) * trace.RecordSize)))

			got, err := trace.ReadAll(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(items))
		})

		It("should stream records with Next", func() {
			path := filepath.Join(tempDir, "stream.tr")
			Expect(trace.WriteFile(path, items)).To(Succeed())

			reader, err := trace.Open(path)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = reader.Close() }()

			for _, want := range items {
				got, err := reader.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}

			_, err = reader.Next()
			Expect(err).To(Equal(io.EOF))
			Expect(reader.Count()).To(Equal(uint64(len(items))))
		})

		It("should report a missing file", func() {
			_, err := trace.Open(filepath.Join(tempDir, "missing.tr"))
			Expect(err).To(MatchError(ContainSubstring("failed to open trace file")))
		})

		It("should treat an empty file as an empty trace", func() {
			path := filepath.Join(tempDir, "empty.tr")
			Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

			got, err := trace.ReadAll(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("should reject a partial trailing record", func() {
			var buf bytes.Buffer
			w := trace.NewWriter(&buf)
			Expect(w.Write(trace.Load(0x40))).To(Succeed())
			Expect(w.Flush()).To(Succeed())
			buf.Write([]byte{0x03, 0x00, 0x00})

			reader := trace.NewReader(&buf)
			_, err := reader.Next()
			Expect(err).NotTo(HaveOccurred())

			_, err = reader.Next()
			Expect(err).To(MatchError(trace.ErrTruncated))
		})
	})

	Describe("SliceSource", func() {
		It("should replay and rewind", func() {
			src := trace.NewSliceSource([]trace.Item{trace.Load(1), trace.Store(2)})

			first, err := src.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Addr).To(Equal(uint32(1)))

			_, err = src.Next()
			Expect(err).NotTo(HaveOccurred())

			_, err = src.Next()
			Expect(err).To(Equal(io.EOF))

			src.Rewind()
			again, err := src.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		})
	})
})
