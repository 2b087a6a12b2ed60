package nop_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pensieveco/pensieve/pkg/eventstream"
	"github.com/pensieveco/pensieve/pkg/eventstream/nop"
)

func TestNopPublisher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventstream Nop Suite")
}

var _ = Describe("Publisher", func() {
	It("accepts events without error", func() {
		p := nop.NewPublisher()
		err := p.Publish(context.Background(), &eventstream.MemoryEvent{MemoryID: "mem"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("rejects nil events", func() {
		p := nop.NewPublisher()
		err := p.Publish(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilEvent))
	})
})
