package initcmder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/pensieveco/pensieve/cmd/pensieve/init"
	"github.com/pensieveco/pensieve/pkg/config"
)

func TestInitCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Init Command Suite")
}

// loadConfig reads and parses the config.toml that init wrote under baseDir.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".pensieve", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	err = toml.Unmarshal(data, cfg)
	Expect(err).NotTo(HaveOccurred())

	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects positional arguments", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"extra"})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
	})

	It("has a preset flag defaulting to empty", func() {
		cmd := initcmder.NewInitCmd()
		flag := cmd.Flags().Lookup("preset")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "pensieve-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates the .pensieve directory with a default config", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Execute()
		Expect(err).NotTo(HaveOccurred())

		info, err := os.Stat(filepath.Join(tmpDir, ".pensieve"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
		Expect(cfg.Recall.MaxResults).To(Equal(uint(3)))
	})

	It("is idempotent without a preset", func() {
		first := initcmder.NewInitCmd()
		Expect(first.Execute()).NotTo(HaveOccurred())

		second := initcmder.NewInitCmd()
		Expect(second.Execute()).NotTo(HaveOccurred())
	})

	It("does not clobber an existing config on re-init without a preset", func() {
		dir := filepath.Join(tmpDir, ".pensieve")
		Expect(os.MkdirAll(dir, 0o755)).NotTo(HaveOccurred())

		marker := []byte("version = 1\n\n[storage]\nprovider = \"postgres\"\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), marker, 0o644)).NotTo(HaveOccurred())

		cmd := initcmder.NewInitCmd()
		Expect(cmd.Execute()).NotTo(HaveOccurred())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Storage.Provider).To(Equal("postgres"))
	})

	Describe("presets", func() {
		It("writes the local preset", func() {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{"--preset", "local"})
			Expect(cmd.Execute()).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Storage.Provider).To(Equal("sqlite"))
			Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Embedding.Model).To(Equal("embeddinggemma"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("writes the chroma preset", func() {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{"--preset", "chroma"})
			Expect(cmd.Execute()).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
			Expect(cfg.Corpus.Enabled).To(BeTrue())
		})

		It("writes the qdrant preset", func() {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{"--preset", "qdrant"})
			Expect(cmd.Execute()).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost"))
			Expect(cfg.VectorStore.Port).To(Equal(uint(6334)))
		})

		It("overwrites the config when re-initialized with a different preset", func() {
			first := initcmder.NewInitCmd()
			first.SetArgs([]string{"--preset", "local"})
			Expect(first.Execute()).NotTo(HaveOccurred())

			second := initcmder.NewInitCmd()
			second.SetArgs([]string{"--preset", "qdrant"})
			Expect(second.Execute()).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		})

		It("rejects unknown presets", func() {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{"--preset", "bogus"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))
		})
	})
})
