package main

import (
	"fmt"
	"os/exec"
)

// chanspecForBandwidth maps a bandwidth in MHz to the chanspec token `iw`
// expects after the channel number.
func chanspecForBandwidth(bandwidth int) (string, error) {
	switch bandwidth {
	case 0:
		return "NOHT", nil
	case 20:
		return "HT20", nil
	case 40:
		return "HT40+", nil
	case 5:
		return "5MHz", nil
	case 10:
		return "10MHz", nil
	case 80:
		return "80MHz", nil
	case 160:
		return "160MHz", nil
	default:
		return "", fmt.Errorf("invalid bandwidth value: %d", bandwidth)
	}
}

// runMonitorMode shells out to ip/ifconfig/iwconfig/iw to put iface into
// monitor mode on the given channel and bandwidth, so a subsequent capture
// can see management frames at all.
func runMonitorMode(iface string, channel, bandwidth int) error {
	chanspec, err := chanspecForBandwidth(bandwidth)
	if err != nil {
		return err
	}

	steps := [][]string{
		{"sudo", "ip", "link", "set", "dev", iface, "down"},
		{"sudo", "ifconfig", iface, "down"},
		{"sudo", "iwconfig", iface, "mode", "monitor"},
		{"sudo", "ifconfig", iface, "up"},
		{"sudo", "iw", iface, "set", "channel", fmt.Sprintf("%d", channel), chanspec},
	}

	for _, step := range steps {
		cmd := exec.Command(step[0], step[1:]...)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("running %v: %w", step, err)
		}
	}

	fmt.Printf("%s is now in monitor mode on channel %d (%s)\n", iface, channel, chanspec)
	return nil
}
