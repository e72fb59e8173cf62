package scoring

// ChildPughID identifies the Child-Pugh liver function classification.
const ChildPughID = "child-pugh"

var childPughTables = TableSet{
	// mg/dL
	"totalBilirubin": Rules{
		Below(2, 1),
		Below(3, 2),
		Otherwise(3),
	},
	// g/dL; higher albumin is better, so the bounds compare with >.
	"albumin": Rules{
		Above(3.5, 1),
		Above(2.8, 2),
		Otherwise(3),
	},
	// seconds prolonged
	"prothrombinTime": Rules{
		Below(4, 1),
		Below(6, 2),
		Otherwise(3),
	},
}
