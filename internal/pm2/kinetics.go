package pm2

import "math"

// ratio clamps numerator/denominator into [minimum, maximum]. Quotas
// and storage fractions are always read through this clamp so the
// closed forms below never see a quota outside its physical range. A
// zero denominator (no biomass) clamps to the minimum instead of
// propagating NaN through the rate vector.
func ratio(numerator, denominator, minimum, maximum float64) float64 {
	q := numerator / denominator
	if math.IsNaN(q) {
		return minimum
	}
	return math.Min(math.Max(minimum, q), maximum)
}

// Irradiance returns the incident irradiance I_0 at time t (days),
// assuming 14 hours of daylight with a sinusoidal profile peaking at
// noon, in uE/m^2/s.
func Irradiance(t float64) float64 {
	const daylightHours = 14.0
	frac := t - math.Floor(t)
	start := (12.0 - daylightHours/2) / 24.0
	end := (12.0 + daylightHours/2) / 24.0
	if frac < start || frac > end {
		return 0
	}
	return 400.0 * (math.Sin(2*math.Pi*((frac-5.0/24.0)/(14.0/24.0))-math.Pi/2) + 1) / 2
}

// attenuation returns the depth-averaged irradiance I from the incident
// irradiance via Beer-Lambert over the reactor light path. aC is the
// absorption coefficient on a TSS basis, bReactor the path length.
func attenuation(light, xTSS, aC, bReactor float64) float64 {
	if xTSS <= 0 {
		return light
	}
	iAvg := light * (1 - math.Exp(-aC*xTSS*bReactor)) / (aC * xTSS * bReactor)
	return math.Min(iAvg, light)
}

// irradResponse is the Eilers-Peeters irradiance response f_I in [0, 1].
// xCarbon is the carbon content of cells (X_ALG + X_CH + X_LI on a g C
// basis); the chlorophyll-to-carbon ratio shifts the response curve.
func irradResponse(iAvg, xCHL, xCarbon, iN, iOpt float64) float64 {
	if xCarbon <= 0 {
		return 0
	}
	fI := iAvg / (iAvg + iN*(0.25-5*xCHL/xCarbon)*((iAvg*iAvg/(iOpt*iOpt))-(2*iAvg/iOpt)+1))
	return math.Min(1, math.Max(0, fI))
}

// droop is the Droop limitation term 1 - (q_min/q)^exponent.
func droop(quota, subsistenceQuota, exponent float64) float64 {
	return 1 - math.Pow(subsistenceQuota/quota, exponent)
}

// monod is the Monod term (S/(K+S))^exponent.
func monod(substrate, halfSat, exponent float64) float64 {
	return math.Pow(substrate/(halfSat+substrate), exponent)
}

// temperatureResponse is the Arrhenius temperature term A*exp(-E/RT)
// with temp in K.
func temperatureResponse(temp, arrA, arrE float64) float64 {
	return arrA * math.Exp(-arrE/temp)
}

// photoadaptation is the net chlorophyll synthesis rate in g Chl/m^3/d.
func photoadaptation(iAvg, xCHL, xCarbon, iN, kGamma float64) float64 {
	if xCarbon <= 0 {
		return 0
	}
	rel := iAvg / iN
	return 24 * ((0.2 * rel) / (kGamma + rel)) *
		(0.01 + 0.03*(math.Log(rel+0.005)/math.Log(0.01)) - xCHL/xCarbon) * xCarbon
}

// nutrientUptake is the quota-regulated uptake rate of S_NH, S_NO or
// S_P in g N or g P/m^3/d.
func nutrientUptake(xALG, quota, substrate, uptakeRate, halfSat, maxQuota, subsistenceQuota float64) float64 {
	return uptakeRate * monod(substrate, halfSat, 1) * xALG *
		math.Pow((maxQuota-quota)/(maxQuota-subsistenceQuota), 0.01)
}

// growth is the functional-cell growth rate in g COD/m^3/d. response is
// f_I for phototrophic growth, or a Monod substrate response for
// heterotrophic growth on acetate or glucose.
func growth(xALG, qN, qP, response, fI, fCH, fLI, temp,
	muMax, exponent, qNmin, qPmin, rho, yCH, yLI, kSTO, arrA, arrE float64) float64 {
	sto := rho*fCH + fLI*(yCH/yLI)
	return muMax * math.Min(droop(qN, qNmin, exponent), droop(qP, qPmin, exponent)) * response *
		(1 - sto/(kSTO*(1-fI)+sto)) * xALG * temperatureResponse(temp, arrA, arrE)
}

// storage is the carbohydrate or lipid storage rate in g COD/m^3/d. f
// is the current storage fraction, fMax its ceiling and beta the
// inhibition power coefficient.
func storage(xALG, qN, qP, response, f, storageRate, fMax, beta, qNmin, qPmin float64) float64 {
	return storageRate * (1 - math.Pow(f/fMax, beta)) *
		math.Max(math.Pow(qNmin/qN, 4), math.Pow(qPmin/qP, 4)) * response * xALG
}

// growthOnCarbohydrate is the growth rate on stored carbohydrates in
// g COD/m^3/d.
func growthOnCarbohydrate(xALG, qN, qP, response, fI, fCH, fLI, temp,
	muMax, exponent, qNmin, qPmin, rho, yCH, yLI, kSTO, arrA, arrE float64) float64 {
	return muMax * math.Min(droop(qN, qNmin, exponent), droop(qP, qPmin, exponent)) * response *
		(rho * fCH) / (kSTO*(1-fI) + rho*fCH + fLI*(yCH/yLI)) * xALG *
		temperatureResponse(temp, arrA, arrE)
}

// growthOnLipid is the growth rate on stored lipids in g COD/m^3/d.
func growthOnLipid(xALG, qN, qP, response, fI, fCH, fLI, temp,
	muMax, exponent, qNmin, qPmin, rho, yCH, yLI, kSTO, arrA, arrE float64) float64 {
	return muMax * math.Min(droop(qN, qNmin, exponent), droop(qP, qPmin, exponent)) * response *
		(fLI * (yCH / yLI)) / (kSTO*(1-fI) + rho*fCH + fLI*(yCH/yLI)) * xALG *
		temperatureResponse(temp, arrA, arrE)
}

// carbohydrateMaintenance is the rate of stored carbohydrate
// degradation for maintenance in g COD/m^3/d.
func carbohydrateMaintenance(xALG, fCH, fLI, mATP, rho, yCH, yLI, yATP, kSTO float64) float64 {
	return mATP * (yCH / yATP) * (rho * fCH) / (kSTO + rho*fCH + fLI*(yCH/yLI)) * xALG
}

// lipidMaintenance is the rate of stored lipid degradation for
// maintenance in g COD/m^3/d.
func lipidMaintenance(xALG, fCH, fLI, mATP, rho, yCH, yLI, yATP, kSTO float64) float64 {
	return mATP * (yLI / yATP) * (fLI * (yCH / yLI)) / (kSTO + rho*fCH + fLI*(yCH/yLI)) * xALG
}

// endogenousRespiration is the functional-cell decay rate in
// g COD/m^3/d, active when storage pools cannot cover maintenance.
func endogenousRespiration(xALG, fCH, fLI, mATP, rho, yCH, yLI, yATP, yXALG, kSTO float64) float64 {
	sto := rho*fCH + fLI*(yCH/yLI)
	return mATP * (yXALG / yATP) * (1 - sto/(kSTO+sto)) * xALG
}
