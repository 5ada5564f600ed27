// pkg/galaxy/names.go
package galaxy

// starNames seeds the galaxy generator with recognizable system names.
// Generation falls back to numbered names once these run out.
var starNames = []string{
	"Alpha Cygni", "Deneb", "Sadr", "Gienah", "Albireo",
	"Fawaris", "Azelfafage", "Ruchba", "Eta Cygni", "Zeta Cygni",
	"Theta Cygni", "Iota Cygni", "Kappa Cygni", "Lambda Cygni", "Mu Cygni",
	"Nu Cygni", "Xi Cygni", "Omicron Cygni", "Pi Cygni", "Rho Cygni",
	"Sigma Cygni", "Tau Cygni", "Upsilon Cygni", "Phi Cygni", "Chi Cygni",
	"Psi Cygni", "Omega Cygni", "Altair Prime", "Vega Minor", "Arcturus Beta",
	"Rigel Station", "Sirius Gate", "Procyon Hub", "Aldebaran", "Antares",
	"Betelgeuse", "Capella", "Pollux", "Regulus", "Spica",
	"Fomalhaut", "Achernar", "Hadar", "Canopus", "Mimosa",
	"Acrux", "Gacrux", "Shaula", "Bellatrix", "Alnilam",
}
