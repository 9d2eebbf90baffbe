package epd4in2

// Command table for the UC8176 controller driving the 4.2" panel. Byte
// values are fixed by the controller's instruction set and must match the
// datasheet exactly.
//
// See golang.org/x/tools/cmd/stringer
//go:generate stringer -type=command
type command byte

const (
	panelSetting           command = 0x00
	powerSetting           command = 0x01
	powerOff               command = 0x02
	powerOffSequence       command = 0x03
	powerOn                command = 0x04
	powerOnMeasure         command = 0x05
	boosterSoftStart       command = 0x06
	deepSleep              command = 0x07
	dataStartTransmission1 command = 0x10
	dataStop               command = 0x11
	displayRefresh         command = 0x12
	dataStartTransmission2 command = 0x13
	lutVcom                command = 0x20
	lutWhiteToWhite        command = 0x21
	lutBlackToWhite        command = 0x22
	lutWhiteToBlack        command = 0x23
	lutBlackToBlack        command = 0x24
	pllControl             command = 0x30
	temperatureSensor      command = 0x40
	temperatureSelect      command = 0x41
	temperatureWrite       command = 0x42
	temperatureRead        command = 0x43
	vcomDataInterval       command = 0x50
	lowPowerDetection      command = 0x51
	tconSetting            command = 0x60
	resolutionSetting      command = 0x61
	gateSourceStart        command = 0x65
	revision               command = 0x70
	getStatus              command = 0x71
	autoMeasureVcom        command = 0x80
	vcomValue              command = 0x81
	vcmDCSetting           command = 0x82
	partialWindow          command = 0x90
	partialIn              command = 0x91
	partialOut             command = 0x92
	programMode            command = 0xA0
	activeProgram          command = 0xA1
	readOTP                command = 0xA2
	cascadeSetting         command = 0xE0
	forceTemperature       command = 0xE5
)

// deepSleep requires a check byte; the controller ignores the command with
// any other value.
const deepSleepCheck = 0xA5

// Waveform lookup tables for the 4-level grey drive. One VCOM table and
// four source tables, 42 bytes each, straight from the vendor reference
// code.
var (
	lutVcomTable = []byte{
		0x00, 0x0A, 0x00, 0x00, 0x00, 0x01, 0x60, 0x14,
		0x14, 0x00, 0x00, 0x01, 0x00, 0x14, 0x00, 0x00,
		0x00, 0x01, 0x00, 0x13, 0x0A, 0x01, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}

	lutWhiteToWhiteTable = []byte{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01, 0x90, 0x14,
		0x14, 0x00, 0x00, 0x01, 0x10, 0x14, 0x0A, 0x00,
		0x00, 0x01, 0xA0, 0x13, 0x01, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}

	lutBlackToWhiteTable = []byte{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01, 0x90, 0x14,
		0x14, 0x00, 0x00, 0x01, 0x00, 0x14, 0x0A, 0x00,
		0x00, 0x01, 0x99, 0x0C, 0x01, 0x03, 0x04, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}

	lutWhiteToBlackTable = []byte{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01, 0x90, 0x14,
		0x14, 0x00, 0x00, 0x01, 0x00, 0x14, 0x0A, 0x00,
		0x00, 0x01, 0x99, 0x0B, 0x04, 0x04, 0x01, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}

	lutBlackToBlackTable = []byte{
		0x80, 0x0A, 0x00, 0x00, 0x00, 0x01, 0x90, 0x14,
		0x14, 0x00, 0x00, 0x01, 0x20, 0x14, 0x0A, 0x00,
		0x00, 0x01, 0x50, 0x13, 0x01, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}
)

// initSequence is the documented power-up configuration: supply voltages,
// booster timing, panel mode, PLL clock, resolution window, VCOM levels.
// Issued in order by PowerOn, with a busy-wait after the power on command.
var initSequence = []struct {
	cmd  command
	data []byte
}{
	{powerSetting, []byte{0x03, 0x00, 0x2B, 0x2B, 0x13}},
	{boosterSoftStart, []byte{0x17, 0x17, 0x17}},
	{powerOn, nil},
	{panelSetting, []byte{0x3F}},
	{pllControl, []byte{0x3C}},
	{resolutionSetting, []byte{0x01, 0x90, 0x01, 0x2C}}, // 400 x 300
	{vcmDCSetting, []byte{0x12}},
	{vcomDataInterval, []byte{0x97}},
	{lutVcom, lutVcomTable},
	{lutWhiteToWhite, lutWhiteToWhiteTable},
	{lutBlackToWhite, lutBlackToWhiteTable},
	{lutWhiteToBlack, lutWhiteToBlackTable},
	{lutBlackToBlack, lutBlackToBlackTable},
}
