package ingest

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseRow(t *testing.T) {
	Convey("Given the quote-aware row parser", t, func() {
		Convey("When parsing a plain row", func() {
			fields := ParseRow("a,b,c")

			Convey("Then every field is split on the delimiter", func() {
				So(fields, ShouldResemble, []string{"a", "b", "c"})
			})
		})

		Convey("When a quoted field contains the delimiter", func() {
			fields := ParseRow(`S1,"Doe, Jane",DP1`)

			Convey("Then the field stays unsplit with the delimiter preserved", func() {
				So(fields, ShouldHaveLength, 3)
				So(fields[1], ShouldEqual, "Doe, Jane")
			})
		})

		Convey("When a quoted field contains a doubled-quote escape", func() {
			fields := ParseRow(`S1,"say ""hi""",DP1`)

			Convey("Then the output contains a single literal quote at that position", func() {
				So(fields[1], ShouldEqual, `say "hi"`)
			})
		})

		Convey("When the row carries embedded JSON with doubled quotes", func() {
			fields := ParseRow(`S1,Jane,"[{""subject"":""Math""}]"`)

			Convey("Then the JSON comes back as one decoded field", func() {
				So(fields, ShouldHaveLength, 3)
				So(fields[2], ShouldEqual, `[{"subject":"Math"}]`)
			})
		})

		Convey("When the row ends with a trailing delimiter", func() {
			fields := ParseRow("a,b,")

			Convey("Then a trailing empty field is emitted", func() {
				So(fields, ShouldResemble, []string{"a", "b", ""})
			})
		})

		Convey("When the row has no delimiter at all", func() {
			fields := ParseRow("lonely")

			Convey("Then exactly one field is returned", func() {
				So(fields, ShouldResemble, []string{"lonely"})
			})
		})

		Convey("When the row is empty", func() {
			fields := ParseRow("")

			Convey("Then one empty field is returned", func() {
				So(fields, ShouldResemble, []string{""})
			})
		})

		Convey("When quotes are unbalanced", func() {
			fields := ParseRow(`a,"b,c`)

			Convey("Then the remainder is treated as quoted rather than failing", func() {
				So(fields, ShouldResemble, []string{"a", "b,c"})
			})
		})

		Convey("When fields carry surrounding whitespace", func() {
			fields := ParseRow("  a , b ,c  ")

			Convey("Then each field is trimmed", func() {
				So(fields, ShouldResemble, []string{"a", "b", "c"})
			})
		})
	})
}

func TestUnwrapEmbedded(t *testing.T) {
	Convey("Given the embedded-column unwrapper", t, func() {
		Convey("When the column is wrapped in one outer quote pair", func() {
			So(unwrapEmbedded(`"{""ee"":""At Risk""}"`), ShouldEqual, `{"ee":"At Risk"}`)
		})

		Convey("When the column arrives already unquoted", func() {
			So(unwrapEmbedded(`{"ee":"At Risk"}`), ShouldEqual, `{"ee":"At Risk"}`)
		})

		Convey("When the column is empty", func() {
			So(unwrapEmbedded(""), ShouldEqual, "")
		})

		Convey("When the column is a lone quote", func() {
			So(unwrapEmbedded(`"`), ShouldEqual, `"`)
		})
	})
}
