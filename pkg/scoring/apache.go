package scoring

// ApacheIIID identifies the APACHE II acute physiology and chronic health
// evaluation.
const ApacheIIID = "apache-ii"

// apacheIITables reproduces the APACHE II physiology point tables. Every
// bound is strict (<) and evaluated top to bottom.
var apacheIITables = TableSet{
	"age": Rules{
		Below(45, 0),
		Below(55, 2),
		Below(65, 3),
		Below(75, 5),
		Otherwise(6),
	},
	// °C
	"temperature": Rules{
		Below(29.9, 4),
		Below(31.9, 3),
		Below(33.9, 2),
		Below(35.9, 1),
		Below(38.5, 0),
		Below(38.9, 1),
		Below(40.9, 2),
		Otherwise(3),
	},
	"meanArterialPressure": Rules{
		Below(49, 4),
		Below(69, 3),
		Below(79, 2),
		Below(109, 0),
		Below(129, 2),
		Below(159, 3),
		Otherwise(4),
	},
	"heartRate": Rules{
		Below(39, 4),
		Below(54, 3),
		Below(69, 2),
		Below(109, 0),
		Below(139, 2),
		Below(179, 3),
		Otherwise(4),
	},
	"respiratoryRate": Rules{
		Below(5, 4),
		Below(11, 3),
		Below(14, 2),
		Below(24, 0),
		Below(34, 2),
		Below(49, 3),
		Otherwise(4),
	},
	"arterialPh": Rules{
		Below(7.15, 4),
		Below(7.25, 3),
		Below(7.33, 2),
		Below(7.45, 0),
		Below(7.50, 2),
		Below(7.60, 3),
		Otherwise(4),
	},
	"serumSodium": Rules{
		Below(110, 4),
		Below(119, 3),
		Below(129, 2),
		Below(149, 0),
		Below(154, 2),
		Below(159, 3),
		Otherwise(4),
	},
	"serumPotassium": Rules{
		Below(2.5, 4),
		Below(2.9, 3),
		Below(3.4, 2),
		Below(5.4, 0),
		Below(5.9, 2),
		Below(6.4, 3),
		Otherwise(4),
	},
	"serumCreatinine": Rules{
		Below(0.6, 4),
		Below(1.4, 0),
		Below(1.9, 2),
		Below(3.4, 3),
		Otherwise(4),
	},
	"hematocrit": Rules{
		Below(29.9, 4),
		Below(45.9, 0),
		Below(49.9, 2),
		Otherwise(4),
	},
	"whiteBloodCellCount": Rules{
		Below(0.9, 4),
		Below(2.9, 3),
		Below(14.9, 0),
		Below(19.9, 2),
		Below(39.9, 3),
		Otherwise(4),
	},
	"glasgowComaScale": InverseFrom(15),
}
