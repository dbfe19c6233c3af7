// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

// Register describes a control table entry: its address and width in
// bytes. The package performs no unit conversion on register values.
type Register struct {
	Address  uint16
	Size     uint16
	ReadOnly bool
}

// X-series control table registers. Other model families share most of
// this layout; consult the motor manual for model-specific entries.
var (
	// EEPROM registers (persistent)
	RegModelNumber     = Register{Address: 0, Size: 2, ReadOnly: true}
	RegModelInfo       = Register{Address: 2, Size: 4, ReadOnly: true}
	RegFirmwareVersion = Register{Address: 6, Size: 1, ReadOnly: true}
	RegID              = Register{Address: 7, Size: 1}
	RegBaudRate        = Register{Address: 8, Size: 1}
	RegReturnDelayTime = Register{Address: 9, Size: 1}
	RegDriveMode       = Register{Address: 10, Size: 1}
	RegOperatingMode   = Register{Address: 11, Size: 1}
	RegHomingOffset    = Register{Address: 20, Size: 4}
	RegTemperatureLim  = Register{Address: 31, Size: 1}
	RegMaxVoltageLim   = Register{Address: 32, Size: 2}
	RegMinVoltageLim   = Register{Address: 34, Size: 2}
	RegCurrentLimit    = Register{Address: 38, Size: 2}
	RegVelocityLimit   = Register{Address: 44, Size: 4}
	RegMaxPositionLim  = Register{Address: 48, Size: 4}
	RegMinPositionLim  = Register{Address: 52, Size: 4}
	RegShutdown        = Register{Address: 63, Size: 1}

	// RAM registers (volatile)
	RegTorqueEnable    = Register{Address: 64, Size: 1}
	RegLED             = Register{Address: 65, Size: 1}
	RegStatusReturnLvl = Register{Address: 68, Size: 1}
	RegHardwareError   = Register{Address: 70, Size: 1, ReadOnly: true}
	RegGoalCurrent     = Register{Address: 102, Size: 2}
	RegGoalVelocity    = Register{Address: 104, Size: 4}
	RegProfileAccel    = Register{Address: 108, Size: 4}
	RegProfileVelocity = Register{Address: 112, Size: 4}
	RegGoalPosition    = Register{Address: 116, Size: 4}
	RegMoving          = Register{Address: 122, Size: 1, ReadOnly: true}
	RegPresentCurrent  = Register{Address: 126, Size: 2, ReadOnly: true}
	RegPresentVelocity = Register{Address: 128, Size: 4, ReadOnly: true}
	RegPresentPosition = Register{Address: 132, Size: 4, ReadOnly: true}
	RegPresentVoltage  = Register{Address: 144, Size: 2, ReadOnly: true}
	RegPresentTemp     = Register{Address: 146, Size: 1, ReadOnly: true}
)
