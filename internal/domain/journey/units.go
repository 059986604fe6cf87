package journey

// Care-unit display names keyed by the unit code carried in ADT segments.
// Codes absent from the table are shown as-is.
var unitDisplayNames = map[string]string{
	"210":  "210-ONCOLOGIE/ENDOCRINOLOGIE",
	"220":  "220-REVALIDATION",
	"225":  "225-NEUROCHIR/ORTHO (CD5)",
	"230":  "230-CARDIOLOGIE/CHIR. VASCULAIRE",
	"235":  "235-GASTROENTEROLOGIE",
	"240":  "240-MEDECINE INTERNE GENERALE",
	"245":  "245-GERIATRIE",
	"255":  "255-PNEUMOLOGIE/NEPHROLOGIE",
	"310":  "310-SOINS INTENSIFS",
	"311":  "311-SOINS INTENSIFS",
	"316":  "316-SOINS INTENSIFS",
	"317":  "317-STROKE",
	"318":  "318-SOINS INTENSIFS",
	"410":  "410-HOPITAL DE JOUR CHIR/UAPO",
	"410A": "410-HOPITAL DE JOUR CHIR/UAPO-HJ",
	"413":  "413-SALLE DE REVEIL (COVID 19)",
	"415":  "415-HOPITAL DE JOUR CHIRURGICAL",
	"420":  "420-NEUROCHIR/ORTHO (CD7)",
	"425":  "425-NEUROLOGIE",
	"426":  "426-POLYSOMNOGRAPHIE ADULTES",
	"430":  "430-CHIRURGIE ABDOMINALE",
	"435":  "435-GYNECOLOGIE/UROLOGIE",
	"440":  "440-GERIATRIE",
	"445":  "445-GERIATRIE",
	"450":  "450-PSYCHIATRIE COURT SEJOUR",
	"640":  "640-PEDIATRIE",
	"707":  "707-URGENCES ADULTES",
	"809":  "809-SOINS INTENSIFS PEDIATRIQUES",
	"810":  "810-BLOC OBSTETRIQUE",
	"812":  "812-ACCUEIL ACCOUCHEMENT",
	"815":  "815-MIC",
	"820":  "820-NIC",
	"820K": "820K-KANGOUROU",
	"820M": "820M-MATERNITE/KANGOUROU",
	"825":  "825-ETUDE DU SOMMEIL PEDIATRIQUE",
	"830":  "830-MATERNITE",
	"835":  "835-MATERNITE",
	"840":  "840-PEDIATRIE",
	"845":  "845-PEDIATRIE",
	"910":  "910-PSYCHIATRIE",
}

// UnitDisplayName resolves a unit code to its display name, returning the
// code itself when no mapping exists.
func UnitDisplayName(code string) string {
	if name, ok := unitDisplayNames[code]; ok {
		return name
	}
	return code
}
