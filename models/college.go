package models

// College is one of the residential colleges on campus.
type College string

// AllColleges is the filter sentinel that disables the college predicate.
const AllColleges College = "All"

const (
	Baker         College = "Baker"
	WillRice      College = "Will Rice"
	Hanszen       College = "Hanszen"
	Wiess         College = "Wiess"
	Jones         College = "Jones"
	Brown         College = "Brown"
	Lovett        College = "Lovett"
	SidRichardson College = "Sid Richardson"
	Martel        College = "Martel"
	McMurtry      College = "McMurtry"
	Duncan        College = "Duncan"
)

// Colleges lists every residential college in display order.
var Colleges = []College{
	Baker, WillRice, Hanszen, Wiess, Jones, Brown,
	Lovett, SidRichardson, Martel, McMurtry, Duncan,
}

// Known reports whether c names a residential college.
func (c College) Known() bool {
	for _, k := range Colleges {
		if k == c {
			return true
		}
	}
	return false
}
