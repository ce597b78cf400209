package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"echobot/types"
)

// WeatherService reports the current weather at a location.
type WeatherService interface {
	GetWeather(ctx context.Context, location types.Location) (*types.Weather, error)
}

// StaticWeather derives a plausible report from the coordinates alone.
type StaticWeather struct {
	now func() time.Time
}

func NewStaticWeather() *StaticWeather {
	return &StaticWeather{now: time.Now}
}

func (w *StaticWeather) GetWeather(ctx context.Context, location types.Location) (*types.Weather, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.Abs(location.Latitude) > 90 || math.Abs(location.Longitude) > 180 {
		return nil, fmt.Errorf("invalid coordinates %.4f, %.4f", location.Latitude, location.Longitude)
	}

	lat := math.Abs(location.Latitude)
	weather := &types.Weather{
		Location:    location,
		Temperature: math.Round((30-lat*0.6)*10) / 10,
		ObservedAt:  w.now(),
	}

	switch {
	case lat >= 66.5:
		weather.Place = "polar region"
		weather.Summary = "❄️ Freezing and windy"
	case lat >= 35:
		weather.Place = "temperate zone"
		weather.Summary = "⛅ Partly cloudy"
	case lat >= 23.5:
		weather.Place = "subtropics"
		weather.Summary = "☀️ Sunny and dry"
	default:
		weather.Place = "tropics"
		weather.Summary = "🌦️ Warm with passing showers"
	}
	return weather, nil
}
