package utils

import (
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type PlayerConfig struct {
	Username     string
	WalkSpeed    float64
	RunSpeed     float64
	JumpVelocity float64
	Gravity      float64
}

type ResolutionConfig struct {
	X, Y int
}

type UIConfig struct {
	Resolution ResolutionConfig
}

type GameConfig struct {
	Lobby             string
	RenderDistance    float64
	MaxVisiblePlayers int
}

type Config struct {
	Player PlayerConfig
	UI     UIConfig
	Game   GameConfig
}

func DefaultConfig() Config {
	return Config{
		Player: PlayerConfig{
			Username:     "Player",
			WalkSpeed:    4.5,
			RunSpeed:     8.5,
			JumpVelocity: 6.6,
			Gravity:      18,
		},
		UI: UIConfig{
			Resolution: ResolutionConfig{X: 1280, Y: 720},
		},
		Game: GameConfig{
			Lobby:             "default-lobby",
			RenderDistance:    50,
			MaxVisiblePlayers: 200,
		},
	}
}

// ReadTOML loads fileName over the defaults. A missing file is not an error:
// the defaults are playable as-is.
func ReadTOML(fileName string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(fileName)
	if os.IsNotExist(err) {
		return &config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(file, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
