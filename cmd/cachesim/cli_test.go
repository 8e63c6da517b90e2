package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/trace"
)

var _ = Describe("cachesim", func() {
	var (
		dir            string
		stdout, stderr *bytes.Buffer
	)

	cli := func(args ...string) int {
		stdout.Reset()
		stderr.Reset()

		return execute(append(args, "--env-file", ""), stdout, stderr)
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}

		for _, key := range []string{envSizeKiB, envBlockSize, envAssoc, envPolicy} {
			GinkgoT().Setenv(key, "")
		}
	})

	Describe("gen and run", func() {
		var tracePath string

		BeforeEach(func() {
			tracePath = filepath.Join(dir, "loop.tr")
			Expect(cli("gen", "loop_reuse", tracePath)).To(Equal(0))
			Expect(stdout.String()).To(HavePrefix("Wrote 2048 records"))
		})

		It("should report the counters of a replay", func() {
			Expect(cli("run", tracePath)).To(Equal(0), stderr.String())

			out := stdout.String()
			Expect(out).To(ContainSubstring("Cache: 32KiB/64B/4-way/lru (128 sets)"))
			Expect(out).To(ContainSubstring("+ number of accesses : 2048\n"))
			Expect(out).To(ContainSubstring("+ number of writes : 64\n"))
			Expect(out).To(ContainSubstring("+ number of misses : 64\n"))
			Expect(out).To(ContainSubstring("+ number of misses with write back : 0\n"))
		})

		It("should apply flags and print JSON", func() {
			Expect(cli("run", tracePath,
				"--size-kib", "1", "--assoc", "1", "--policy", "FIFO", "--json")).
				To(Equal(0), stderr.String())

			var summary report.Summary
			Expect(json.Unmarshal(stdout.Bytes(), &summary)).To(Succeed())
			Expect(summary.Config.String()).To(Equal("1KiB/64B/1-way/fifo"))
			Expect(summary.Sets).To(Equal(16))
			Expect(summary.Stats.Accesses).To(Equal(uint64(2048)))
			// A 4 KiB loop thrashes a 1 KiB direct-mapped cache.
			Expect(summary.Stats.Hits).To(BeZero())
			Expect(summary.Stats.MissesWithWriteback).To(Equal(uint64(64)))
		})

		It("should agree with the reference model", func() {
			Expect(cli("run", tracePath, "--crosscheck", "--assoc", "2")).
				To(Equal(0), stderr.String())
			Expect(stderr.String()).To(ContainSubstring(
				"Crosscheck passed: 2048 accesses agree with the reference model"))
		})

		It("should record the run into SQLite", func() {
			db := filepath.Join(dir, "run")
			Expect(cli("run", tracePath, "--record", db)).To(Equal(0), stderr.String())

			Expect(stderr.String()).To(ContainSubstring("Database created for recording"))
			_, err := os.Stat(db + ".sqlite3")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should print running counters", func() {
			Expect(cli("run", tracePath, "--progress", "1024")).To(Equal(0))
			Expect(stderr.String()).To(ContainSubstring("[1024] hits="))
			Expect(stderr.String()).To(ContainSubstring("[2048] hits=1984 misses=64"))
		})

		It("should sweep configurations", func() {
			Expect(cli("sweep", tracePath,
				"--sizes", "1,2", "--blocks", "64", "--assocs", "1,2",
				"--policies", "lru", "--format", "csv")).To(Equal(0), stderr.String())

			lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
			Expect(lines).To(HaveLen(5))
			Expect(lines[0]).To(HavePrefix("size_kib,block_size"))
			Expect(lines[1]).To(HavePrefix("1,64,1,lru,16,2048,"))
		})

		It("should refuse an unknown sweep format", func() {
			Expect(cli("sweep", tracePath, "--format", "xml")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring(`unknown format "xml"`))
		})
	})

	It("should show every access in the trace view", func() {
		tracePath := filepath.Join(dir, "tiny.tr")
		Expect(trace.WriteFile(tracePath, []trace.Item{
			trace.Load(0x1f40),
			{Type: trace.TypeBranch},
			trace.Store(0x1f40),
		})).To(Succeed())

		Expect(cli("run", tracePath, "-v")).To(Equal(0))
		Expect(stdout.String()).To(HavePrefix("LOAD 1f40 miss\nSTORE 1f40 hit\n"))
		Expect(stdout.String()).To(ContainSubstring("Records: 3 (1 ignored)"))
	})

	Describe("configuration layering", func() {
		It("should take defaults from the environment", func() {
			GinkgoT().Setenv(envAssoc, "2")
			GinkgoT().Setenv(envPolicy, "1")

			Expect(cli("config")).To(Equal(0), stderr.String())
			Expect(stdout.String()).To(Equal("32KiB/64B/2-way/fifo (256 sets)\n"))
		})

		It("should let a config file override the environment", func() {
			GinkgoT().Setenv(envSizeKiB, "8")

			path := filepath.Join(dir, "cache.json")
			Expect(os.WriteFile(path, []byte(`{"block_size_bytes": 32}`), 0644)).To(Succeed())

			Expect(cli("config", "--config", path)).To(Equal(0), stderr.String())
			Expect(stdout.String()).To(Equal("8KiB/32B/4-way/lru (64 sets)\n"))
		})

		It("should let flags override everything", func() {
			GinkgoT().Setenv(envAssoc, "2")

			Expect(cli("config", "--assoc", "8", "-p", "lru")).To(Equal(0))
			Expect(stdout.String()).To(Equal("32KiB/64B/8-way/lru (64 sets)\n"))
		})

		It("should read a .env file", func() {
			DeferCleanup(os.Unsetenv, envBlockSize)
			Expect(os.Unsetenv(envBlockSize)).To(Succeed())

			envFile := filepath.Join(dir, "cachesim.env")
			Expect(os.WriteFile(envFile, []byte("CACHESIM_BLOCK_SIZE=128\n"), 0644)).To(Succeed())

			Expect(execute([]string{"config", "--env-file", envFile}, stdout, stderr)).To(Equal(0))
			Expect(stdout.String()).To(Equal("32KiB/128B/4-way/lru (64 sets)\n"))
		})

		It("should save the resolved configuration", func() {
			path := filepath.Join(dir, "saved.json")
			Expect(cli("config", "--block-size", "16", "--out", path)).To(Equal(0))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"block_size_bytes": 16`))
		})
	})

	Describe("errors", func() {
		It("should reject an invalid geometry", func() {
			Expect(cli("config", "--block-size", "48")).To(Equal(1))
			Expect(stderr.String()).To(HavePrefix("Error: invalid cache configuration: block_size_bytes"))
		})

		It("should reject an oversized cache instead of crashing", func() {
			tracePath := filepath.Join(dir, "tiny.tr")
			Expect(trace.WriteFile(tracePath, []trace.Item{trace.Load(0x40)})).To(Succeed())

			Expect(cli("run", tracePath, "--size-kib", "1099511627776", "-b", "1", "-a", "1")).
				To(Equal(1))
			Expect(stderr.String()).To(HavePrefix("Error: invalid cache configuration: cache_size_kib"))
		})

		It("should reject a malformed environment variable", func() {
			GinkgoT().Setenv(envAssoc, "four")

			Expect(cli("config")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("invalid CACHESIM_ASSOC"))
		})

		It("should reject an unknown policy", func() {
			Expect(cli("config", "--policy", "random")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("policy"))
		})

		It("should report a missing trace", func() {
			Expect(cli("run", filepath.Join(dir, "missing.tr"))).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("failed to open trace file"))
		})

		It("should report an unknown workload", func() {
			Expect(cli("gen", "nope", filepath.Join(dir, "x.tr"))).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring(`unknown workload "nope"`))
		})
	})
})
