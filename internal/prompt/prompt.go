package prompt

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skufu/vetddx/internal/model"
)

//go:embed formulary.txt
var formulary string

const preamble = "You are a veterinary clinical decision support assistant specialized in small animal medicine. " +
	"You MUST base your differentials ONLY on information from Merck Veterinary Manual and BSAVA " +
	"(British Small Animal Veterinary Association) Manuals. Do not use any other sources.\n\n"

const safetyInstructions = `CRITICAL SAFETY INSTRUCTIONS - READ CAREFULLY:
1. Do NOT include any diagnoses mentioned in the "EXCLUDED DIAGNOSES" section
2. If a diagnostic test has ruled something out (e.g., "no obstruction on x-ray"), do NOT include that diagnosis
3. Base all differentials ONLY on Merck Veterinary Manual and BSAVA Manuals
4. Reference these textbooks when explaining your reasoning
5. DOUBLE-CHECK all drug dosages - use the EXACT doses provided below
6. Common dangerous errors to AVOID:
   - Ondansetron is 0.1-0.2 mg/kg, NOT 1 mg/kg
   - Meloxicam in cats: use lower doses and max 3 days
   - NEVER use paracetamol in cats - it is FATAL
   - Dexamethasone: start with lower doses (0.05-0.1 mg/kg) especially in cats
7. Always show your calculation steps clearly
`

const calculationInstructions = `IMPORTANT CALCULATION INSTRUCTIONS:
- For injectable drugs: ALWAYS calculate the actual volume in ml based on the concentration
- Show calculation steps: Weight → mg needed → ml volume → number of vials
- For oral medications: Calculate number of tablets/capsules or ml of suspension
- Injectable routes preferred for vomiting/diarrhea cases
- NSAIDs: Use injectable forms to avoid gastric ulcers
- Corticosteroids: Always use 3-day tapering system
- Never use paracetamol in cats (TOXIC)
- Check liver function before azithromycin
- Calcium raises body temperature - avoid in febrile patients
`

// The headings and line layouts below are the ones internal/analysis reads.
const outputFormat = `OUTPUT FORMAT - FOLLOW EXACTLY:
## Ranked Differential Diagnoses
One line per diagnosis, most to least likely, as: LIKELIHOOD% | Diagnosis name | Reasoning with Merck/BSAVA reference
Use likelihoods between 5% and 95%.

## Suggested Diagnostic Steps
Numbered steps based on Merck/BSAVA protocols.

## Red Flags
Bullet list, or "None identified".

## Treatment Recommendations
Group drugs by category. Start every group with a line "CATEGORY: <name>" followed by the drugs with specific names, doses, routes and calculated volumes.

Be concise but thorough. Use clinical reasoning principles from these veterinary textbooks only.`

// Build renders the instruction sent to every model for c. The output depends
// only on c.
func Build(c model.Case) string {
	c = c.Normalized()

	var b strings.Builder
	b.WriteString(preamble)

	fmt.Fprintf(&b, "Species: %s\n", c.Species)
	fmt.Fprintf(&b, "Age: %s\n", c.Age)
	fmt.Fprintf(&b, "Sex: %s\n", c.Sex)
	fmt.Fprintf(&b, "Weight: %s kg\n", formatWeight(c.Weight))
	if c.Breed != "" {
		fmt.Fprintf(&b, "Breed: %s\n", c.Breed)
	}
	fmt.Fprintf(&b, "Problem list: %s\n", c.ProblemList())
	if excluded := c.ExcludedList(); excluded != "" {
		fmt.Fprintf(&b, "\nEXCLUDED DIAGNOSES (do NOT include these - already ruled out by diagnostics): %s\n", excluded)
	}

	b.WriteString("\n")
	b.WriteString(safetyInstructions)
	b.WriteString("\n")
	b.WriteString(formulary)
	b.WriteString("\n")
	b.WriteString(calculationInstructions)
	b.WriteString("\n")
	b.WriteString(outputFormat)
	return b.String()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
