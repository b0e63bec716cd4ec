// Package bridgelift analyzes drawbridge lift logs. It joins each lift event
// with the tide and weather conditions at its scheduled hour, trains a small
// neural network to predict lift duration, and renders an interactive HTML
// report of the findings.
package bridgelift

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"bridgelift/config"
	"bridgelift/feature"
	"bridgelift/fuse"
	"bridgelift/liftlog"
	"bridgelift/models"
	"bridgelift/stats"
	"bridgelift/store"
	"bridgelift/tide"
	"bridgelift/weather"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoConfig = errors.New("no configuration provided")
	ErrNoEvents = errors.New("no lift events to analyze")
)

const dateLayout = "2006-01-02"

// Pipeline wires the lift log, external data sources, feature fusion, and
// model training into a single run.
type Pipeline struct {
	cfg *config.Config
	opt *Options
	log *zap.Logger

	db            *store.Store
	tideClient    *tide.Client
	weatherClient *weather.Client
}

// NewPipeline validates the configuration and builds the pipeline with its
// API clients and cache store. A nil logger disables logging.
func NewPipeline(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache store, %w", err)
	}

	return &Pipeline{
		cfg:           cfg,
		opt:           OptionsFromConfig(cfg),
		log:           log,
		db:            db,
		tideClient:    tide.NewClient(cfg.Tide.APIURL, cfg.Tide.Station, cfg.Tide.Timeout, cfg.Tide.Retries),
		weatherClient: weather.NewClient(cfg.Weather.APIURL, cfg.Bridge.Latitude, cfg.Bridge.Longitude, cfg.Weather.Timeout, cfg.Weather.Retries),
	}, nil
}

// Close releases the cache store.
func (p *Pipeline) Close() error {
	return p.db.Close()
}

// Run executes the full analysis: load the lift log, fetch tide and weather
// for the covered window, fuse the feature table, train and evaluate the
// duration model, and persist the run summary.
func (p *Pipeline) Run(ctx context.Context) (*Results, error) {
	runID := uuid.NewString()
	startedAt := time.Now()
	log := p.log.With(zap.String("run_id", runID))

	f, err := os.Open(p.cfg.Bridge.LogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open lift log, %w", err)
	}
	loaded, err := liftlog.Load(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("unable to load lift log, %w", err)
	}
	log.Info("loaded lift log",
		zap.Int("events", len(loaded.Events)),
		zap.Int("dropped", loaded.Dropped),
	)
	if len(loaded.Events) == 0 {
		return nil, ErrNoEvents
	}

	start, end, err := p.window(loaded.Events)
	if err != nil {
		return nil, err
	}

	// the two sources are independent so fetch them concurrently
	var (
		preds []tide.Prediction
		obs   []weather.Observation
		wg    sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		preds = p.fetchTide(ctx, log, start, end)
	}()
	go func() {
		defer wg.Done()
		obs = p.fetchWeather(ctx, log, start, end)
	}()
	wg.Wait()
	log.Info("fetched hourly series",
		zap.Int("tide_hours", len(preds)),
		zap.Int("weather_hours", len(obs)),
	)

	derived := make([]feature.Derived, len(loaded.Events))
	for i, ev := range loaded.Events {
		derived[i] = feature.Derive(ev)
	}

	records, err := fuse.Fuse(loaded.Events, derived, preds, obs, p.opt.FuseOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to fuse feature table, %w", err)
	}
	var imputedWeather, imputedTide int
	for _, rec := range records {
		if rec.ImputedWeather {
			imputedWeather++
		}
		if rec.ImputedTide {
			imputedTide++
		}
	}
	log.Info("fused feature table",
		zap.Int("records", len(records)),
		zap.Int("imputed_weather", imputedWeather),
		zap.Int("imputed_tide", imputedTide),
	)

	x, y := fuse.Table(records)
	split, err := models.TrainTestSplit(x, y, p.opt.TestFraction, p.opt.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("unable to split dataset, %w", err)
	}

	mlp, predicted, scaledTestX, err := p.trainAndPredict(split)
	if err != nil {
		return nil, err
	}

	scores, err := stats.NewScores(predicted, split.TestY)
	if err != nil {
		return nil, fmt.Errorf("unable to score held-out split, %w", err)
	}
	log.Info("scored held-out split",
		zap.Float64("rmse_min", scores.RMSE),
		zap.Float64("mae_min", scores.MAE),
		zap.Float64("within_5min_pct", scores.Within5Min),
	)

	imps, err := stats.PermutationImportance(mlp, scaledTestX, split.TestY, p.opt.ImportanceRepeats, p.opt.ImportanceSeed)
	if err != nil {
		return nil, fmt.Errorf("unable to compute feature importance, %w", err)
	}

	outlierIdxs := stats.DetectOutliers(
		y,
		p.opt.OutlierOptions.LowerPercentile,
		p.opt.OutlierOptions.UpperPercentile,
		p.opt.OutlierOptions.TukeyFactor,
	)
	if len(outlierIdxs) > 0 {
		log.Info("flagged unusually long lifts", zap.Int("count", len(outlierIdxs)))
	}

	res := &Results{
		RunID:          runID,
		GeneratedAt:    startedAt,
		Records:        records,
		Labels:         fuse.Labels,
		DroppedRows:    loaded.Dropped,
		ImputedWeather: imputedWeather,
		ImputedTide:    imputedTide,
		TrainSize:      len(split.TrainY),
		TestSize:       len(split.TestY),
		Actual:         split.TestY,
		Predicted:      predicted,
		Scores:         scores,
		Importances:    imps,
		LossCurve:      mlp.LossCurve(),
		OutlierIdxs:    outlierIdxs,
	}

	if err := p.db.SaveRun(&store.Run{
		ID:             runID,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		Events:         len(records),
		DroppedRows:    loaded.Dropped,
		ImputedWeather: imputedWeather,
		ImputedTide:    imputedTide,
		RMSE:           scores.RMSE,
		MAE:            scores.MAE,
		Within5Min:     scores.Within5Min,
	}); err != nil {
		log.Warn("failed to record run", zap.Error(err))
	}

	log.Info("run complete", zap.Duration("elapsed", time.Since(startedAt)))
	return res, nil
}

// trainAndPredict scales the partitions with parameters fit on the training
// rows only, fits the regressor, and predicts the held-out rows. The scaled
// test matrix is returned for the importance computation.
func (p *Pipeline) trainAndPredict(split *models.SplitDataset) (*models.MLPRegressor, []float64, *mat.Dense, error) {
	trainX, err := models.NewDenseFromArray(split.TrainX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to build training matrix, %w", err)
	}
	testX, err := models.NewDenseFromArray(split.TestX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to build test matrix, %w", err)
	}

	scaler := models.NewStandardScaler()
	scaledTrainX, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to scale training matrix, %w", err)
	}
	scaledTestX, err := scaler.Transform(testX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to scale test matrix, %w", err)
	}

	mlp, err := models.NewMLPRegressor(p.opt.MLPOptions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to initialize regressor, %w", err)
	}
	trainY := mat.NewDense(len(split.TrainY), 1, split.TrainY)
	if err := mlp.Fit(scaledTrainX, trainY); err != nil {
		return nil, nil, nil, fmt.Errorf("unable to fit regressor, %w", err)
	}

	predicted, err := mlp.Predict(scaledTestX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to predict held-out split, %w", err)
	}
	return mlp, predicted, scaledTestX, nil
}

// window resolves the fetch date range from the configuration, falling back
// to the span of the lift log's scheduled times.
func (p *Pipeline) window(events []liftlog.LiftEvent) (time.Time, time.Time, error) {
	start := events[0].ETA
	end := events[0].ETA
	for _, ev := range events[1:] {
		if ev.ETA.Before(start) {
			start = ev.ETA
		}
		if ev.ETA.After(end) {
			end = ev.ETA
		}
	}

	if p.cfg.Bridge.StartDate != "" {
		t, err := time.Parse(dateLayout, p.cfg.Bridge.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date, %w", err)
		}
		start = t
	}
	if p.cfg.Bridge.EndDate != "" {
		t, err := time.Parse(dateLayout, p.cfg.Bridge.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date, %w", err)
		}
		end = t
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return start, end, nil
}

func (p *Pipeline) fetchTide(ctx context.Context, log *zap.Logger, start, end time.Time) []tide.Prediction {
	preds, err := p.tideClient.Predictions(ctx, start, end)
	if err == nil {
		if serr := p.db.SaveTidePredictions(p.cfg.Tide.Station, preds); serr != nil {
			log.Warn("failed to cache tide predictions", zap.Error(serr))
		}
		return preds
	}

	log.Warn("tide fetch failed, falling back to cache", zap.Error(err))
	cached, cerr := p.db.LoadTidePredictions(p.cfg.Tide.Station, start, end.Add(24*time.Hour))
	if cerr != nil {
		log.Warn("tide cache read failed, tide heights will be imputed", zap.Error(cerr))
		return nil
	}
	if len(cached) == 0 {
		log.Warn("no cached tide predictions, tide heights will be imputed")
	}
	return cached
}

func (p *Pipeline) fetchWeather(ctx context.Context, log *zap.Logger, start, end time.Time) []weather.Observation {
	obs, err := p.weatherClient.Hourly(ctx, start, end)
	if err == nil {
		if serr := p.db.SaveWeatherObservations(p.cfg.Bridge.Latitude, p.cfg.Bridge.Longitude, obs); serr != nil {
			log.Warn("failed to cache weather observations", zap.Error(serr))
		}
		return obs
	}

	log.Warn("weather fetch failed, falling back to cache", zap.Error(err))
	cached, cerr := p.db.LoadWeatherObservations(p.cfg.Bridge.Latitude, p.cfg.Bridge.Longitude, start, end.Add(24*time.Hour))
	if cerr != nil {
		log.Warn("weather cache read failed, weather values will be imputed", zap.Error(cerr))
		return nil
	}
	if len(cached) == 0 {
		log.Warn("no cached weather observations, weather values will be imputed")
	}
	return cached
}
