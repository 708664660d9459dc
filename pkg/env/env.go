// Package env provides the shared settings of the linebot commands.
// Subpackages robot and host assemble the robot and host sides from
// flags and LINEBOT_* environment variables.
package env

import (
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine id so it is not exposed on the broker.
const AppID = "linebot"

// MachineID retrieves an ID identifying the machine, or "local" when
// the platform has none.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// List is a flag.Value collecting repeated or comma separated values.
type List []string

// String implements flag.Value.
func (l *List) String() string {
	return strings.Join(*l, ",")
}

// Set implements flag.Value.
func (l *List) Set(val string) error {
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*l = append(*l, item)
		}
	}
	return nil
}
