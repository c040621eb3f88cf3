package notify

import "errors"

var errAlertCooldown = errors.New("alert is within cooldown period")
