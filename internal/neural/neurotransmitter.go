package neural

import "time"

// Neurotransmitter selects the chemical profile of a synapse and with it
// the base conduction latency.
type Neurotransmitter string

const (
	Glutamate      Neurotransmitter = "glutamate"
	GABA           Neurotransmitter = "gaba"
	Acetylcholine  Neurotransmitter = "acetylcholine"
	Dopamine       Neurotransmitter = "dopamine"
	Norepinephrine Neurotransmitter = "norepinephrine"
	Histamine      Neurotransmitter = "histamine"
	Serotonin      Neurotransmitter = "serotonin"
	Adenosine      Neurotransmitter = "adenosine"
	Oxytocin       Neurotransmitter = "oxytocin"
	Endorphin      Neurotransmitter = "endorphin"
)

// BaseLatency returns the unmodulated conduction latency. Fast excitatory
// transmitters sit at the bottom of the table, slow neuromodulators at the
// top. Unknown transmitters conduct like glutamate.
func (n Neurotransmitter) BaseLatency() time.Duration {
	switch n {
	case GABA:
		return 1000 * time.Nanosecond
	case Acetylcholine:
		return 1500 * time.Nanosecond
	case Dopamine:
		return 2000 * time.Nanosecond
	case Norepinephrine:
		return 2500 * time.Nanosecond
	case Histamine:
		return 3000 * time.Nanosecond
	case Serotonin:
		return 5000 * time.Nanosecond
	case Adenosine:
		return 8000 * time.Nanosecond
	case Oxytocin:
		return 10000 * time.Nanosecond
	case Endorphin:
		return 15000 * time.Nanosecond
	default:
		return 500 * time.Nanosecond
	}
}
