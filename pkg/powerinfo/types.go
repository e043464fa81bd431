package powerinfo

// Battery is the battery information shown by the status command.
// Units:
// - Current, Full, Design: mWh
// - ChargeRate: mW
// - Voltage, DesignVoltage: Volts
type Battery struct {
	State         string  `json:"state"`
	Current       float64 `json:"current"`
	Full          float64 `json:"full"`
	Design        float64 `json:"design"`
	ChargeRate    float64 `json:"chargeRate"`
	Voltage       float64 `json:"voltage"`
	DesignVoltage float64 `json:"designVoltage"`
}

// Health is the full charge capacity relative to the design capacity, in percent.
func (b Battery) Health() float64 {
	if b.Design <= 0 {
		return 0
	}
	return b.Full / b.Design * 100
}

// Percent is the remaining charge in percent.
func (b Battery) Percent() float64 {
	if b.Full <= 0 {
		return 0
	}
	return b.Current / b.Full * 100
}
