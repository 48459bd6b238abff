// internal/launch/inputs.go
package launch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/units"
)

// Inputs is the full set of launch parameters, collected interactively or
// supplied up front. Zero values mean "use the default" during collection.
type Inputs struct {
	Supply    uint64 `yaml:"supply"`
	Decimals  uint8  `yaml:"decimals"`
	Symbol    string `yaml:"symbol"`
	TokenName string `yaml:"token_name"`

	LotSize float64 `yaml:"lot_size"`

	PoolBaseAmount uint64  `yaml:"pool_base_amount"` // human units of the new token
	PoolQuoteSOL   uint64  `yaml:"pool_quote_sol"`   // whole SOL
	LockHours      uint64  `yaml:"lock_hours"`
	SwapPercent    float64 `yaml:"swap_percent"`
}

// Defaults per the launch prompt table.
const (
	DefaultSupply       = 10000
	DefaultDecimals     = 9
	DefaultSymbol       = "TMT"
	DefaultTokenName    = "Test Mock Token"
	DefaultLotSize      = 1
	DefaultPoolQuoteSOL = 1
	DefaultSwapPercent  = 20
)

// MaxPoolQuoteSOL caps the quote seed at one billion SOL, far above the
// circulating supply. Larger values would wrap the uint64 lamport math in
// the balance gate and the pool seed.
const MaxPoolQuoteSOL = 1_000_000_000

// LoadInputs reads launch parameters from a YAML file, skipping the
// interactive prompts entirely. Fields left out of the file take the same
// defaults the prompts would apply.
func LoadInputs(path string) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}

	in := &Inputs{
		Supply:       DefaultSupply,
		Decimals:     DefaultDecimals,
		Symbol:       DefaultSymbol,
		TokenName:    DefaultTokenName,
		LotSize:      DefaultLotSize,
		PoolQuoteSOL: DefaultPoolQuoteSOL,
		SwapPercent:  DefaultSwapPercent,
	}
	if err := yaml.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("failed to parse inputs file: %w", err)
	}
	if in.PoolBaseAmount == 0 {
		in.PoolBaseAmount = in.Supply
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Validate checks the cross-field constraints that prompting also enforces,
// so pre-supplied inputs go through the same gate.
func (in *Inputs) Validate() error {
	info := types.TokenInfo{Amount: in.Supply, Decimals: in.Decimals}
	if err := info.Validate(); err != nil {
		return err
	}
	if _, ok := types.TickSizeFor(in.LotSize); !ok {
		return fmt.Errorf("invalid lot size %v: must be one of %v", in.LotSize, types.AllowedLotSizes())
	}
	if in.PoolBaseAmount > in.Supply {
		return fmt.Errorf("pool token amount %d exceeds total supply %d", in.PoolBaseAmount, in.Supply)
	}
	if in.PoolBaseAmount == 0 {
		return fmt.Errorf("pool token amount must be positive")
	}
	if in.PoolQuoteSOL > MaxPoolQuoteSOL {
		return fmt.Errorf("pool SOL amount %d exceeds the maximum %d", in.PoolQuoteSOL, MaxPoolQuoteSOL)
	}
	if in.SwapPercent < 0 || in.SwapPercent > 100 {
		return fmt.Errorf("swap percent %v out of range [0,100]", in.SwapPercent)
	}
	return nil
}

// TokenInfo builds the mint parameters from the collected inputs.
func (in *Inputs) TokenInfo() *types.TokenInfo {
	return &types.TokenInfo{
		Amount:    in.Supply,
		Decimals:  in.Decimals,
		Symbol:    in.Symbol,
		TokenName: in.TokenName,
	}
}

// SwapOutputBaseUnits computes each wallet's swap target: the configured
// percentage of the pool's base seed, in base units of the new token.
func (in *Inputs) SwapOutputBaseUnits() (uint64, error) {
	human := uint64(float64(in.PoolBaseAmount) * in.SwapPercent / 100)
	if human == 0 {
		return 0, fmt.Errorf("swap percent %v of pool amount %d rounds to zero", in.SwapPercent, in.PoolBaseAmount)
	}
	return units.ToBaseUnits(human, in.Decimals)
}

// Prompter collects launch inputs from an interactive terminal, applying
// defaults on empty input and re-asking on invalid values.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *Prompter) askString(prompt, def string) (string, error) {
	line, err := p.readLine(fmt.Sprintf("%s [%s]: ", prompt, def))
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *Prompter) askUint(prompt string, def uint64) (uint64, error) {
	for {
		line, err := p.readLine(fmt.Sprintf("%s [%d]: ", prompt, def))
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		v, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			fmt.Fprintf(p.out, "invalid number: %s\n", line)
			continue
		}
		return v, nil
	}
}

func (p *Prompter) askFloat(prompt string, def float64) (float64, error) {
	for {
		line, err := p.readLine(fmt.Sprintf("%s [%v]: ", prompt, def))
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintf(p.out, "invalid number: %s\n", line)
			continue
		}
		return v, nil
	}
}

// Collect walks the prompt table in order. Validation failures re-ask the
// offending question rather than aborting the session.
func (p *Prompter) Collect() (*Inputs, error) {
	in := &Inputs{}
	var err error

	if in.Supply, err = p.askUint("Token amount", DefaultSupply); err != nil {
		return nil, err
	}

	for {
		decimals, err := p.askUint("Decimals", DefaultDecimals)
		if err != nil {
			return nil, err
		}
		if decimals < 1 || decimals > 9 {
			fmt.Fprintf(p.out, "decimals must be between 1 and 9\n")
			continue
		}
		if !units.Fits(in.Supply, uint8(decimals)) {
			fmt.Fprintf(p.out, "supply %d with %d decimals exceeds the 64-bit limit\n", in.Supply, decimals)
			continue
		}
		in.Decimals = uint8(decimals)
		break
	}

	if in.Symbol, err = p.askString("Symbol", DefaultSymbol); err != nil {
		return nil, err
	}
	if in.TokenName, err = p.askString("Token name", DefaultTokenName); err != nil {
		return nil, err
	}

	for {
		lot, err := p.askFloat("Lot size", DefaultLotSize)
		if err != nil {
			return nil, err
		}
		if _, ok := types.TickSizeFor(lot); !ok {
			fmt.Fprintf(p.out, "lot size must be one of %v\n", types.AllowedLotSizes())
			continue
		}
		in.LotSize = lot
		break
	}

	for {
		amount, err := p.askUint("Pool token amount", in.Supply)
		if err != nil {
			return nil, err
		}
		if amount > in.Supply {
			fmt.Fprintf(p.out, "pool token amount cannot exceed the total supply %d\n", in.Supply)
			continue
		}
		if amount == 0 {
			fmt.Fprintf(p.out, "pool token amount must be positive\n")
			continue
		}
		in.PoolBaseAmount = amount
		break
	}

	if in.PoolQuoteSOL, err = p.askUint("Pool SOL amount", DefaultPoolQuoteSOL); err != nil {
		return nil, err
	}
	if in.LockHours, err = p.askUint("Pool lock hours", 0); err != nil {
		return nil, err
	}
	if in.SwapPercent, err = p.askFloat("Swap percent", DefaultSwapPercent); err != nil {
		return nil, err
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}
