package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pensieveco/pensieve/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("New", func() {
	var buf bytes.Buffer

	BeforeEach(func() {
		buf.Reset()
	})

	It("writes text output with attributes by default", func() {
		l := logger.New(logger.WithWriter(&buf))
		l.Info("hello", "memory_id", "mem_1")

		out := buf.String()
		Expect(out).To(ContainSubstring("hello"))
		Expect(out).To(ContainSubstring("memory_id"))
		Expect(out).To(ContainSubstring("mem_1"))
	})

	It("emits debug records when debug is enabled", func() {
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
		l.Debug("tier recalculated")

		Expect(buf.String()).To(ContainSubstring("tier recalculated"))
	})

	It("drops debug records by default", func() {
		l := logger.New(logger.WithWriter(&buf))
		l.Debug("hidden")

		Expect(buf.String()).To(BeEmpty())
	})

	It("produces parseable JSON in JSON mode", func() {
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.Info("structured", "count", 42)

		var parsed map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &parsed)).To(Succeed())
		Expect(parsed["msg"]).To(Equal("structured"))
		Expect(parsed["count"]).To(BeNumerically("==", 42))
	})

	It("renders through the pretty handler when asked", func() {
		l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
		l.Info("pretty output")

		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})

	It("duplicates records across multiple writers", func() {
		var second bytes.Buffer
		l := logger.New(logger.WithWriters(&buf, &second))
		l.Info("multi")

		Expect(buf.String()).To(ContainSubstring("multi"))
		Expect(second.String()).To(ContainSubstring("multi"))
	})
})

var _ = Describe("Nop", func() {
	It("accepts every method without panicking", func() {
		l := logger.Nop()
		Expect(func() {
			l.Debug("msg")
			l.Info("msg")
			l.Warn("msg")
			l.Error("msg")
			l.With("key", "value").Info("msg")
			l.WithGroup("group").Info("msg")
		}).NotTo(Panic())
	})

	It("reports every level as disabled", func() {
		l := logger.Nop()
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})

var _ = Describe("Multi", func() {
	It("fans records out to every logger", func() {
		var buf1, buf2 bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&buf1)),
			logger.New(logger.WithWriter(&buf2)),
		)

		multi.Info("broadcast", "key", "val")

		Expect(buf1.String()).To(ContainSubstring("broadcast"))
		Expect(buf2.String()).To(ContainSubstring("broadcast"))
	})

	It("carries With attributes through the fanout", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

		multi.With("component", "recall").Info("hello")

		var parsed map[string]any
		line := strings.TrimSpace(buf.String())
		Expect(json.Unmarshal([]byte(line), &parsed)).To(Succeed())
		Expect(parsed["component"]).To(Equal("recall"))
	})

	It("skips loggers whose level filters the record", func() {
		var quiet, loud bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&quiet)),
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)),
		)

		multi.Debug("only loud")

		Expect(quiet.String()).To(BeEmpty())
		Expect(loud.String()).To(ContainSubstring("only loud"))
	})
})
