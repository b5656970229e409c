// Package pm2 binds the phototrophic-mixotrophic process model (PM2)
// to the compiled stoichiometry machinery: a 14-component registry, 30
// processes and a closed-form batch rate function over a 17-entry
// state vector.
package pm2

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/KimmieDC/qsdsan/internal/compiler"
	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/process"
)

//go:embed pm2.cue
var definition []byte

// State vector layout for Rates and ProductionRates. The first 14
// entries are component concentrations in the registry order below,
// entry 14 is the flow rate (carried but unused by the kinetics),
// entry 15 the temperature in K and entry 16 the incident light
// irradiance in uE/m^2/s.
const (
	StateDim = 17

	idxTemp  = 15
	idxLight = 16
)

// Component indices within the state vector, matching the registry
// declaration order of the embedded definition.
const (
	IdxXCHL = iota
	IdxXALG
	IdxXCH
	IdxXLI
	IdxSCO2
	IdxSA
	IdxSF
	IdxSO2
	IdxSNH
	IdxSNO
	IdxSP
	IdxXNALG
	IdxXPALG
	IdxH2O
)

// InvalidParameterError reports a rejected parameter assignment.
type InvalidParameterError struct {
	Name    string
	Message string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Message)
}

// stoichiometric parameter names; changing one invalidates the
// evaluated numeric matrix.
var stoichioParams = map[string]bool{
	"Y_CH_PHO": true, "Y_LI_PHO": true, "Y_X_ALG_PHO": true,
	"Y_CH_NR_HET_ACE": true, "Y_LI_NR_HET_ACE": true, "Y_X_ALG_HET_ACE": true,
	"Y_CH_NR_HET_GLU": true, "Y_LI_NR_HET_GLU": true, "Y_X_ALG_HET_GLU": true,
	"Y_CH_ND_HET_ACE": true, "Y_LI_ND_HET_ACE": true,
	"Y_CH_ND_HET_GLU": true, "Y_LI_ND_HET_GLU": true,
}

// DefaultParameters returns the calibrated parameter set of the model:
// kinetic constants first, then the stoichiometric yields (PHO:
// photoautotrophic on CO2, HET_ACE/HET_GLU: heterotrophic on acetate
// and glucose, NR/ND: nutrient-replete and -deplete).
func DefaultParameters() map[string]float64 {
	return map[string]float64{
		"a_c":       0.049,
		"I_n":       250,
		"arr_a":     1.8e10,
		"arr_e":     6842,
		"beta_1":    2.90,
		"beta_2":    3.50,
		"b_reactor": 0.03,
		"I_opt":     300,
		"k_gamma":   0.00001,
		"K_N":       0.1,
		"K_P":       1.0,
		"K_A":       6.3,
		"K_F":       6.3,
		"rho":       1.186,
		"K_STO":     1.566,
		"f_CH_max":  0.819,
		"f_LI_max":  3.249,
		"m_ATP":     15.835,
		"mu_max":    1.969,
		"q_CH":      0.594,
		"q_LI":      0.910,
		"Q_N_max":   0.417,
		"Q_N_min":   0.082,
		"Q_P_max":   0.092,
		"Q_P_min":   0.0163,
		"V_NH":      0.254,
		"V_NO":      0.254,
		"V_P":       0.016,
		"exponent":  4,

		"Y_ATP_PHO":       55.073,
		"Y_CH_PHO":        0.754,
		"Y_LI_PHO":        0.901,
		"Y_X_ALG_PHO":     0.450,
		"Y_ATP_HET_ACE":   39.623,
		"Y_CH_NR_HET_ACE": 0.625,
		"Y_CH_ND_HET_ACE": 0.600,
		"Y_LI_NR_HET_ACE": 1.105,
		"Y_LI_ND_HET_ACE": 0.713,
		"Y_X_ALG_HET_ACE": 0.216,
		"Y_ATP_HET_GLU":   58.114,
		"Y_CH_NR_HET_GLU": 0.917,
		"Y_CH_ND_HET_GLU": 0.880,
		"Y_LI_NR_HET_GLU": 1.620,
		"Y_LI_ND_HET_GLU": 1.046,
		"Y_X_ALG_HET_GLU": 0.317,
	}
}

// Model is the compiled PM2 system bound to its rate function. Rates
// and ProductionRates reuse internal buffers; a Model is not safe for
// concurrent use.
type Model struct {
	cp     *process.CompiledProcesses
	params map[string]float64

	thQNmin float64
	thQPmin float64

	iMass []float64
	iC    []float64

	stoich  [][]float64 // nil until evaluated against the current yields
	rateBuf []float64
	prodBuf []float64
}

// New compiles the embedded definition and binds the default
// parameters. Q_N_min and Q_P_min are raised to the theoretical minima
// implied by the growth_pho stoichiometry when the defaults fall
// below them.
func New() (*Model, error) {
	spec, err := compiler.CompileSource(definition, "pm2.cue")
	if err != nil {
		return nil, err
	}
	cp, err := compiler.Build(spec)
	if err != nil {
		return nil, err
	}

	m := &Model{
		cp:      cp,
		params:  DefaultParameters(),
		rateBuf: make([]float64, cp.Size()),
		prodBuf: make([]float64, cp.Components().Size()),
	}
	if m.iMass, err = cp.Components().ConversionFactors("mass"); err != nil {
		return nil, err
	}
	if m.iC, err = cp.Components().ConversionFactors("C"); err != nil {
		return nil, err
	}

	if m.thQNmin, err = m.quotaFloor("X_N_ALG"); err != nil {
		return nil, err
	}
	if m.thQPmin, err = m.quotaFloor("X_P_ALG"); err != nil {
		return nil, err
	}
	m.params["Q_N_min"] = math.Max(m.params["Q_N_min"], m.thQNmin)
	m.params["Q_P_min"] = math.Max(m.params["Q_P_min"], m.thQPmin)
	return m, nil
}

// quotaFloor derives the theoretical subsistence quota from the
// growth_pho row: growth cannot consume less cell-associated nutrient
// per unit biomass than the stoichiometry prescribes.
func (m *Model) quotaFloor(componentID string) (float64, error) {
	row, err := m.cp.Index("growth_pho")
	if err != nil {
		return 0, err
	}
	col, err := m.cp.Components().Index(componentID)
	if err != nil {
		return 0, err
	}
	v, err := m.cp.Stoichiometry()[row][col].Eval(m.params)
	if err != nil {
		return 0, err
	}
	return math.Abs(v) * 1.001, nil
}

// Compiled returns the underlying compiled process set.
func (m *Model) Compiled() *process.CompiledProcesses { return m.cp }

// Components returns the compiled PM2 component registry.
func (m *Model) Components() *components.CompiledComponents { return m.cp.Components() }

// Parameters returns a copy of the current parameter table.
func (m *Model) Parameters() map[string]float64 {
	out := make(map[string]float64, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

// TheoreticalQNMin is the lower bound enforced on Q_N_min.
func (m *Model) TheoreticalQNMin() float64 { return m.thQNmin }

// TheoreticalQPMin is the lower bound enforced on Q_P_min.
func (m *Model) TheoreticalQPMin() float64 { return m.thQPmin }

// SetParameters applies overrides to the parameter table. Unknown
// names and subsistence quotas below their theoretical minima are
// rejected, leaving the table untouched.
func (m *Model) SetParameters(overrides map[string]float64) error {
	for name, v := range overrides {
		if _, ok := m.params[name]; !ok {
			return &InvalidParameterError{Name: name, Message: "unknown parameter"}
		}
		if name == "Q_N_min" && v < m.thQNmin {
			return &InvalidParameterError{Name: name,
				Message: fmt.Sprintf("must not be less than the theoretical minimum %v", m.thQNmin)}
		}
		if name == "Q_P_min" && v < m.thQPmin {
			return &InvalidParameterError{Name: name,
				Message: fmt.Sprintf("must not be less than the theoretical minimum %v", m.thQPmin)}
		}
	}
	for name, v := range overrides {
		m.params[name] = v
		if stoichioParams[name] {
			m.stoich = nil
		}
	}
	return nil
}

// Stoichiometry evaluates the compiled matrix against the current
// yields. The returned matrix is cached and must not be modified.
func (m *Model) Stoichiometry() ([][]float64, error) {
	if m.stoich != nil {
		return m.stoich, nil
	}
	sym := m.cp.Stoichiometry()
	out := make([][]float64, len(sym))
	for i, row := range sym {
		out[i] = make([]float64, len(row))
		for j, e := range row {
			v, err := e.Eval(m.params)
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	m.stoich = out
	return out, nil
}

// Rates evaluates all 30 process rates for one state vector, in the
// compiled process order. The returned slice is reused by the next
// call.
func (m *Model) Rates(state []float64) ([]float64, error) {
	if len(state) != StateDim {
		return nil, fmt.Errorf("state vector must have %d entries, got %d", StateDim, len(state))
	}

	xCHL, xALG, xCH, xLI := state[IdxXCHL], state[IdxXALG], state[IdxXCH], state[IdxXLI]
	sA, sF := state[IdxSA], state[IdxSF]
	sNH, sNO, sP := state[IdxSNH], state[IdxSNO], state[IdxSP]
	xNALG, xPALG := state[IdxXNALG], state[IdxXPALG]
	temp, light := state[idxTemp], state[idxLight]

	p := m.params
	aC, iN, iOpt := p["a_c"], p["I_n"], p["I_opt"]
	arrA, arrE := p["arr_a"], p["arr_e"]
	beta1, beta2, bReactor := p["beta_1"], p["beta_2"], p["b_reactor"]
	kGamma, kN, kP, kA, kF := p["k_gamma"], p["K_N"], p["K_P"], p["K_A"], p["K_F"]
	rho, kSTO := p["rho"], p["K_STO"]
	fCHmax, fLImax := p["f_CH_max"], p["f_LI_max"]
	mATP, muMax, qCHrate, qLIrate := p["m_ATP"], p["mu_max"], p["q_CH"], p["q_LI"]
	qNmax, qNmin, qPmax, qPmin := p["Q_N_max"], p["Q_N_min"], p["Q_P_max"], p["Q_P_min"]
	vNH, vNO, vP, exponent := p["V_NH"], p["V_NO"], p["V_P"], p["exponent"]
	yATPpho, yCHpho, yLIpho, yXpho := p["Y_ATP_PHO"], p["Y_CH_PHO"], p["Y_LI_PHO"], p["Y_X_ALG_PHO"]
	yATPace, yCHace, yLIace, yXace := p["Y_ATP_HET_ACE"], p["Y_CH_NR_HET_ACE"], p["Y_LI_NR_HET_ACE"], p["Y_X_ALG_HET_ACE"]
	yATPglu, yCHglu, yLIglu, yXglu := p["Y_ATP_HET_GLU"], p["Y_CH_NR_HET_GLU"], p["Y_LI_NR_HET_GLU"], p["Y_X_ALG_HET_GLU"]

	fCH := ratio(xCH, xALG, 0, fCHmax)
	fLI := ratio(xLI, xALG, 0, fLImax)
	qN := ratio(xNALG, xALG, qNmin, qNmax)
	qP := ratio(xPALG, xALG, qPmin, qPmax)

	xTSS := xALG*m.iMass[IdxXALG] + xCH*m.iMass[IdxXCH] + xLI*m.iMass[IdxXLI]
	xCarbon := xALG*m.iC[IdxXALG] + xCH*m.iC[IdxXCH] + xLI*m.iC[IdxXLI]

	iAvg := attenuation(light, xTSS, aC, bReactor)
	fI := irradResponse(iAvg, xCHL, xCarbon, iN, iOpt)
	acetateResponse := monod(sA, kA, 1)
	glucoseResponse := monod(sF, kF, 1)

	rhos := m.rateBuf

	rhos[0] = photoadaptation(iAvg, xCHL, xCarbon, iN, kGamma)
	rhos[1] = nutrientUptake(xALG, qN, sNH, vNH, kN, qNmax, qNmin)
	rhos[2] = nutrientUptake(xALG, qP, sP, vP, kP, qPmax, qPmin)

	rhos[3] = growth(xALG, qN, qP, fI, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHpho, yLIpho, kSTO, arrA, arrE)
	rhos[4] = storage(xALG, qN, qP, fI, fCH, qCHrate, fCHmax, beta1, qNmin, qPmin)
	rhos[5] = storage(xALG, qN, qP, fI, fLI, qLIrate, fLImax, beta2, qNmin, qPmin) * (fCH / fCHmax)
	rhos[6] = growthOnCarbohydrate(xALG, qN, qP, fI, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHpho, yLIpho, kSTO, arrA, arrE)
	rhos[7] = growthOnLipid(xALG, qN, qP, fI, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHpho, yLIpho, kSTO, arrA, arrE)
	rhos[8] = carbohydrateMaintenance(xALG, fCH, fLI, mATP, rho, yCHpho, yLIpho, yATPpho, kSTO)
	rhos[9] = lipidMaintenance(xALG, fCH, fLI, mATP, rho, yCHpho, yLIpho, yATPpho, kSTO)
	rhos[10] = endogenousRespiration(xALG, fCH, fLI, mATP, rho, yCHpho, yLIpho, yATPpho, yXpho, kSTO)

	rhos[11] = growth(xALG, qN, qP, acetateResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHace, yLIace, kSTO, arrA, arrE)
	rhos[12] = storage(xALG, qN, qP, acetateResponse, fCH, qCHrate, fCHmax, beta1, qNmin, qPmin)
	rhos[13] = storage(xALG, qN, qP, acetateResponse, fLI, qLIrate, fLImax, beta2, qNmin, qPmin) * (fCH / fCHmax)
	rhos[14] = growthOnCarbohydrate(xALG, qN, qP, acetateResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHace, yLIace, kSTO, arrA, arrE)
	rhos[15] = growthOnLipid(xALG, qN, qP, acetateResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHace, yLIace, kSTO, arrA, arrE)
	rhos[16] = carbohydrateMaintenance(xALG, fCH, fLI, mATP, rho, yCHace, yLIace, yATPace, kSTO)
	rhos[17] = lipidMaintenance(xALG, fCH, fLI, mATP, rho, yCHace, yLIace, yATPace, kSTO)
	rhos[18] = endogenousRespiration(xALG, fCH, fLI, mATP, rho, yCHace, yLIace, yATPace, yXace, kSTO)

	rhos[19] = growth(xALG, qN, qP, glucoseResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHglu, yLIglu, kSTO, arrA, arrE)
	rhos[20] = storage(xALG, qN, qP, glucoseResponse, fCH, qCHrate, fCHmax, beta1, qNmin, qPmin)
	rhos[21] = storage(xALG, qN, qP, glucoseResponse, fLI, qLIrate, fLImax, beta2, qNmin, qPmin) * (fCH / fCHmax)
	rhos[22] = growthOnCarbohydrate(xALG, qN, qP, glucoseResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHglu, yLIglu, kSTO, arrA, arrE)
	rhos[23] = growthOnLipid(xALG, qN, qP, glucoseResponse, fI, fCH, fLI, temp, muMax, exponent, qNmin, qPmin, rho, yCHglu, yLIglu, kSTO, arrA, arrE)
	rhos[24] = carbohydrateMaintenance(xALG, fCH, fLI, mATP, rho, yCHglu, yLIglu, yATPglu, kSTO)
	rhos[25] = lipidMaintenance(xALG, fCH, fLI, mATP, rho, yCHglu, yLIglu, yATPglu, kSTO)
	rhos[26] = endogenousRespiration(xALG, fCH, fLI, mATP, rho, yCHglu, yLIglu, yATPglu, yXglu, kSTO)

	// Nitrate uptake only proceeds once ammonium is scarce.
	nitrate := nutrientUptake(xALG, qN, sNO, vNO, kN, qNmax, qNmin) * (kN / (kN + sNH))
	rhos[27] = nitrate
	rhos[28] = nitrate
	rhos[29] = nitrate

	return rhos, nil
}

// ProductionRates returns the net production rate of every component
// for one state vector: the transposed stoichiometry matrix applied to
// the process rates. The returned slice is reused by the next call.
func (m *Model) ProductionRates(state []float64) ([]float64, error) {
	rhos, err := m.Rates(state)
	if err != nil {
		return nil, err
	}
	stoich, err := m.Stoichiometry()
	if err != nil {
		return nil, err
	}
	for c := range m.prodBuf {
		sum := 0.0
		for i := range stoich {
			sum += stoich[i][c] * rhos[i]
		}
		m.prodBuf[c] = sum
	}
	return m.prodBuf, nil
}
