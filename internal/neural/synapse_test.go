package neural

import (
	"testing"
	"time"
)

func TestNeurotransmitterLatencyOrdering(t *testing.T) {
	cases := []struct {
		nt   Neurotransmitter
		want time.Duration
	}{
		{Glutamate, 500 * time.Nanosecond},
		{GABA, 1000 * time.Nanosecond},
		{Acetylcholine, 1500 * time.Nanosecond},
		{Dopamine, 2000 * time.Nanosecond},
		{Norepinephrine, 2500 * time.Nanosecond},
		{Histamine, 3000 * time.Nanosecond},
		{Serotonin, 5000 * time.Nanosecond},
		{Adenosine, 8000 * time.Nanosecond},
		{Oxytocin, 10000 * time.Nanosecond},
		{Endorphin, 15000 * time.Nanosecond},
	}
	for _, c := range cases {
		if got := c.nt.BaseLatency(); got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.nt, c.want, got)
		}
	}
	if Neurotransmitter("unknown").BaseLatency() != 500*time.Nanosecond {
		t.Fatal("unknown transmitter should conduct like glutamate")
	}
}

func TestNewSynapseDefaults(t *testing.T) {
	s := NewSynapse("tron_aaaaaaaa11111111", "tron_bbbbbbbb22222222", "")

	if s.Strength != 0.5 || s.Plasticity != 0.8 {
		t.Fatalf("unexpected newborn profile: strength %v plasticity %v", s.Strength, s.Plasticity)
	}
	if s.Neurotransmitter != Glutamate {
		t.Fatalf("expected glutamate default, got %s", s.Neurotransmitter)
	}
	if s.State != SynapseEstablishing || !s.Bidirectional {
		t.Fatalf("unexpected newborn state: %+v", s)
	}
	if s.SuccessRate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %v", s.SuccessRate)
	}
	// synapse_<from8>_<to8>_<uuid8>
	const wantPrefix = "synapse_tron_aaa_tron_bbb_"
	if len(s.ConnectionID) != len(wantPrefix)+8 || s.ConnectionID[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("unexpected connection id %q", s.ConnectionID)
	}
}

func TestTransmissionDelayScaling(t *testing.T) {
	s := NewSynapse("a", "b", Glutamate)

	// Strength 0.5, urgency 0.5: 500ns * 1.5 * 1.5.
	if got := s.TransmissionDelay(0.5); got != 1125*time.Nanosecond {
		t.Fatalf("expected 1125ns, got %s", got)
	}

	s.Strength = 1.0
	if got := s.TransmissionDelay(1.0); got != 500*time.Nanosecond {
		t.Fatalf("perfect synapse at max urgency should hit base latency, got %s", got)
	}

	s.Strength = 0.0
	if got := s.TransmissionDelay(0.0); got != 2000*time.Nanosecond {
		t.Fatalf("dead strength and no urgency should quadruple base, got %s", got)
	}
}

func TestStrengthenRequiresActiveState(t *testing.T) {
	s := NewSynapse("a", "b", Glutamate)

	s.Strengthen(0.5)
	if s.Strength != 0.5 {
		t.Fatalf("establishing synapse should not strengthen, got %v", s.Strength)
	}

	s.State = SynapseActive
	s.Strengthen(0.5)
	if s.Strength != 0.9 {
		t.Fatalf("expected strength 0.9 after 0.5*0.8 boost, got %v", s.Strength)
	}
	if s.Plasticity >= 0.8 {
		t.Fatalf("strengthening should spend plasticity, got %v", s.Plasticity)
	}

	s.Strengthen(10)
	if s.Strength != 1.0 {
		t.Fatalf("strength should cap at 1.0, got %v", s.Strength)
	}
}

func TestWeakenClosesBelowThreshold(t *testing.T) {
	s := NewSynapse("a", "b", Glutamate)
	s.State = SynapseActive

	s.Weaken(0.2)
	if s.State == SynapseClosed {
		t.Fatalf("strength %v should not close yet", s.Strength)
	}

	s.Weaken(0.4)
	if s.Strength >= 0.1 {
		t.Fatalf("expected strength below 0.1, got %v", s.Strength)
	}
	if s.State != SynapseClosed {
		t.Fatalf("expected closed synapse, got %s", s.State)
	}

	s.Weaken(10)
	if s.Strength != 0 {
		t.Fatalf("strength should floor at 0, got %v", s.Strength)
	}
}

func TestLatencyStats(t *testing.T) {
	var stats LatencyStats
	if stats.Average() != 0 {
		t.Fatal("empty stats should average 0")
	}

	stats.Record(100 * time.Nanosecond)
	stats.Record(300 * time.Nanosecond)
	stats.Record(200 * time.Nanosecond)

	if stats.Min != 100*time.Nanosecond || stats.Max != 300*time.Nanosecond {
		t.Fatalf("unexpected extremes: %s/%s", stats.Min, stats.Max)
	}
	if stats.Average() != 200*time.Nanosecond {
		t.Fatalf("expected average 200ns, got %s", stats.Average())
	}
	if stats.Count != 3 {
		t.Fatalf("expected 3 observations, got %d", stats.Count)
	}
}

func TestConsciousnessBoostTable(t *testing.T) {
	cases := []struct {
		mt   MessageType
		want float64
	}{
		{MessageConsciousness, 0.1},
		{MessageLearning, 0.05},
		{MessageEmotion, 0.04},
		{MessageCollective, 0.03},
		{MessageSocial, 0.02},
		{MessageStimulus, 0.01},
		{MessageMaintenance, 0.01},
	}
	for _, c := range cases {
		if got := c.mt.ConsciousnessBoost(); got != c.want {
			t.Fatalf("%s: expected boost %v, got %v", c.mt, c.want, got)
		}
	}
}
