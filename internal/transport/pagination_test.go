package transport

import (
	"math"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ParsePage", func() {
	parse := func(query string, def, max int) Page {
		return ParsePage(httptest.NewRequest("GET", "/files?"+query, nil), def, max)
	}

	ginkgo.It("falls back to the first page and default size", func() {
		p := parse("page=abc&per_page=-3", 20, 100)

		gomega.Expect(p).To(gomega.Equal(Page{Page: 1, PerPage: 20}))
		gomega.Expect(p.Offset()).To(gomega.Equal(0))
	})

	ginkgo.It("caps per_page at the maximum", func() {
		gomega.Expect(parse("page=3&per_page=500", 20, 100)).To(gomega.Equal(Page{Page: 3, PerPage: 100}))
	})

	ginkgo.It("caps huge page numbers so the offset cannot overflow", func() {
		// When
		p := parse("page=9223372036854775807&per_page=50", 20, 100)

		// Then
		gomega.Expect(p.Page).To(gomega.BeNumerically("<", math.MaxInt32))
		gomega.Expect(p.Offset()).To(gomega.BeNumerically(">", 0))
		gomega.Expect(p.Offset()).To(gomega.BeNumerically("<=", math.MaxInt32))
		gomega.Expect(NewPagination(p, 10).Page).To(gomega.Equal(p.Page))
	})

	ginkgo.It("keeps the cap when per_page is fixed", func() {
		p := FixedPage(httptest.NewRequest("GET", "/admin/logs?page=100000000000", nil), 50)

		gomega.Expect(p.PerPage).To(gomega.Equal(50))
		gomega.Expect(p.Offset()).To(gomega.BeNumerically("<=", math.MaxInt32))
	})
})
