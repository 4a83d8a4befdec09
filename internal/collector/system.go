package collector

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Sensor key fragments, lowercase.
var (
	cpuSensorKeys = []string{"coretemp", "k10temp", "zenpower", "cpu", "package"}
	memSensorKeys = []string{"jc42", "spd5118", "dimm", "memory"}
)

// System reads metrics of the local host through gopsutil.
type System struct {
	// routeAddr is dialed over UDP to find the outbound interface. No packet
	// is sent.
	routeAddr string
}

// NewSystem returns a Source for the local host.
func NewSystem() *System {
	return &System{routeAddr: "8.8.8.8:80"}
}

func (s *System) CPUPercent(ctx context.Context) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("reading cpu percent: %w", err)
	}
	if len(pcts) == 0 {
		return 0, ErrNoData
	}
	return pcts[0], nil
}

func (s *System) Temperatures(ctx context.Context) (cpuC, memC float64, err error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	// Partial readings come back with a warning error; use what we got.
	if err != nil && len(temps) == 0 {
		return 0, 0, fmt.Errorf("reading sensors: %w", err)
	}
	cpuC, memC = HottestSensors(temps)
	return cpuC, memC, nil
}

// HottestSensors picks the highest CPU and memory readings by sensor key.
func HottestSensors(temps []host.TemperatureStat) (cpuC, memC float64) {
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		switch {
		case matchesAny(key, memSensorKeys):
			memC = max(memC, t.Temperature)
		case matchesAny(key, cpuSensorKeys):
			cpuC = max(cpuC, t.Temperature)
		}
	}
	return cpuC, memC
}

func matchesAny(key string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

func (s *System) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading memory: %w", err)
	}
	return vm.UsedPercent, nil
}

func (s *System) DiskUsage(ctx context.Context, path string) (total, used float64, err error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading usage of %s: %w", path, err)
	}
	return float64(u.Total), float64(u.Used), nil
}

func (s *System) NetCounters(ctx context.Context) (sent, recv uint64, err error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, fmt.Errorf("reading network counters: %w", err)
	}
	if len(counters) == 0 {
		return 0, 0, ErrNoData
	}
	return counters[0].BytesSent, counters[0].BytesRecv, nil
}

func (s *System) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("reading host info: %w", err)
	}
	return info.Hostname, nil
}

// PrimaryIP returns the address of the interface used for outbound traffic,
// or 127.0.0.1 when there is none.
func (s *System) PrimaryIP() string {
	conn, err := net.Dial("udp", s.routeAddr)
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
