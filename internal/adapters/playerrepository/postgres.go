package playerrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

const DATA_FORMAT_VERSION = 1

type PostgresPlayerRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresPlayerRepository(db *sqlx.DB, schema string) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db, schema}
}

type playerDataStorage struct {
	Class      string         `json:"class,omitempty"`
	Level      *int           `json:"lvl,omitempty"`
	Experience int            `json:"xp,omitempty"`
	Attributes map[string]int `json:"attrs,omitempty"`
}

type questDataStorage struct {
	Title       string         `json:"title"`
	Description string         `json:"desc"`
	ExpReward   int            `json:"xp,omitempty"`
	StatRewards map[string]int `json:"stats,omitempty"`
}

type dbSnapshot struct {
	ID                string    `db:"id"`
	DataFormatVersion int       `db:"data_format_version"`
	UUID              string    `db:"player_uuid"`
	RecordedAt        time.Time `db:"recorded_at"`
	PlayerData        []byte    `db:"player_data"`
}

func playerToDataStorage(player *domain.PlayerStats) ([]byte, error) {
	if player == nil {
		return []byte(`{}`), nil
	}

	var level *int
	if player.Level != domain.InitialLevel {
		level = &player.Level
	}

	attributes := make(map[string]int, len(player.Attributes))
	for attribute, value := range player.Attributes {
		if value == domain.DefaultAttributeValue {
			continue
		}
		attributes[string(attribute)] = value
	}

	data := playerDataStorage{
		Class:      string(player.Class),
		Level:      level,
		Experience: player.Experience,
		Attributes: attributes,
	}

	json, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playerdatastorage: %w", err)
	}
	return json, nil
}

func dbSnapshotToPlayerStats(snapshot dbSnapshot) (*domain.PlayerStats, error) {
	var playerData playerDataStorage
	err := json.Unmarshal(snapshot.PlayerData, &playerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal player data: %w", err)
	}

	level := domain.InitialLevel
	if playerData.Level != nil {
		level = *playerData.Level
	}

	attributes := make(map[domain.Attribute]int, len(domain.AllAttributes()))
	for _, attribute := range domain.AllAttributes() {
		attributes[attribute] = domain.DefaultAttributeValue
	}
	for name, value := range playerData.Attributes {
		attributes[domain.Attribute(name)] = value
	}

	return &domain.PlayerStats{
		QueriedAt: snapshot.RecordedAt,

		UUID: snapshot.UUID,

		Class:      domain.Class(playerData.Class),
		Level:      level,
		Experience: playerData.Experience,
		Attributes: attributes,
	}, nil
}

func questsToDataStorage(ledger *domain.QuestLedger) ([]byte, error) {
	quests := ledger.Quests()
	data := make([]questDataStorage, 0, len(quests))
	for _, quest := range quests {
		data = append(data, questDataStorage{
			Title:       quest.Title,
			Description: quest.Description,
			ExpReward:   quest.ExpReward,
			StatRewards: quest.StatRewards,
		})
	}

	json, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questdatastorage: %w", err)
	}
	return json, nil
}

func questsFromDataStorage(raw []byte) (*domain.QuestLedger, error) {
	var data []questDataStorage
	err := json.Unmarshal(raw, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest data: %w", err)
	}

	quests := make([]domain.Quest, 0, len(data))
	for _, stored := range data {
		quests = append(quests, domain.Quest{
			Title:       stored.Title,
			Description: stored.Description,
			ExpReward:   stored.ExpReward,
			StatRewards: stored.StatRewards,
		})
	}

	return domain.NewQuestLedger(quests), nil
}

func (p *PostgresPlayerRepository) StorePlayer(ctx context.Context, player *domain.PlayerStats) error {
	if player == nil {
		err := fmt.Errorf("player is nil")
		reporting.Report(ctx, err)
		return err
	}

	if !strutils.UUIDIsNormalized(player.UUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	playerData, err := playerToDataStorage(player)
	if err != nil {
		err := fmt.Errorf("failed to convert player to data storage: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	dbID, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate db id: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	var lastDataFormatVersion int
	var lastPlayerData []byte
	err = txx.QueryRowContext(
		ctx,
		`SELECT
			data_format_version, player_data
		FROM player_snapshots
		WHERE
			player_uuid = $1 AND
			recorded_at > $2
		ORDER BY recorded_at DESC LIMIT 1`,
		player.UUID,
		player.QueriedAt.Add(-1*time.Hour),
	).Scan(&lastDataFormatVersion, &lastPlayerData)
	if err == nil && lastDataFormatVersion == DATA_FORMAT_VERSION {
		equal, err := strutils.JSONStringsEqual(playerData, lastPlayerData)
		if err != nil {
			err := fmt.Errorf("failed to compare player data: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid": player.UUID,
			})
			return err
		}
		if equal {
			// Unchanged within the last hour -> don't store a new snapshot
			return nil
		}
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		err := fmt.Errorf("failed to query last player data: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO player_snapshots
		(id, player_uuid, player_data, recorded_at, data_format_version)
		VALUES ($1, $2, $3, $4, $5)`,
		dbID.String(),
		player.UUID,
		playerData,
		player.QueriedAt,
		DATA_FORMAT_VERSION,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert new snapshot: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return err
	}

	logging.FromContext(ctx).Info("Stored player snapshot", "dataFormatVersion", DATA_FORMAT_VERSION)

	return nil
}

func (p *PostgresPlayerRepository) GetPlayer(ctx context.Context, playerUUID string) (*domain.PlayerStats, error) {
	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}

	conn, err := p.db.Connx(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get connection: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"schema": p.schema,
		})
		return nil, err
	}

	var snapshot dbSnapshot
	err = conn.GetContext(
		ctx,
		&snapshot,
		`SELECT
			id, data_format_version, player_uuid, recorded_at, player_data
		FROM player_snapshots
		WHERE player_uuid = $1
		ORDER BY recorded_at DESC
		LIMIT 1`,
		playerUUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshots for player", domain.ErrPlayerNotFound)
	}
	if err != nil {
		err := fmt.Errorf("failed to select latest snapshot: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}

	player, err := dbSnapshotToPlayerStats(snapshot)
	if err != nil {
		err := fmt.Errorf("failed to convert db snapshot to player stats: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":       playerUUID,
			"snapshotID": snapshot.ID,
		})
		return nil, err
	}

	return player, nil
}

func (p *PostgresPlayerRepository) GetHistory(ctx context.Context, playerUUID string, start, end time.Time, limit int) ([]domain.PlayerStats, error) {
	if limit < 2 || limit > 1000 {
		err := fmt.Errorf("invalid limit")
		reporting.Report(ctx, err, map[string]string{
			"uuid":  playerUUID,
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
			"limit": strconv.Itoa(limit),
		})
		return nil, err
	}

	timespan := end.Sub(start)
	if timespan <= 0 {
		err := fmt.Errorf("end time must be after start time")
		reporting.Report(ctx, err, map[string]string{
			"uuid":     playerUUID,
			"start":    start.Format(time.RFC3339),
			"end":      end.Format(time.RFC3339),
			"limit":    strconv.Itoa(limit),
			"timespan": timespan.String(),
		})
		return nil, err
	}

	dbSnapshots := make([]dbSnapshot, 0, limit)

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":  playerUUID,
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
			"limit": strconv.Itoa(limit),
		})
		return nil, err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"start":  start.Format(time.RFC3339),
			"end":    end.Format(time.RFC3339),
			"limit":  strconv.Itoa(limit),
			"schema": p.schema,
		})
		return nil, err
	}

	// NOTE: Odd limit values will be rounded down (limit=3 == limit=2)
	numberOfIntervals := limit / 2

	intervalLength := timespan / time.Duration(numberOfIntervals)
	for offset := 0; offset < numberOfIntervals; offset++ {
		intervalStart := start.Add(intervalLength * time.Duration(offset))
		intervalEnd := start.Add(intervalLength * time.Duration(offset+1))

		endOperator := "<"
		isLastInterval := offset == numberOfIntervals-1
		if isLastInterval {
			// Inclusive end for last interval
			endOperator = "<="
			// Make sure we get all the way to the end in case of rounding errors
			intervalEnd = end
		}

		var firstSnapshot dbSnapshot
		err = txx.GetContext(
			ctx,
			&firstSnapshot,
			fmt.Sprintf(`select
				id, data_format_version, player_uuid, recorded_at, player_data
			from player_snapshots
			where
				player_uuid = $1 and
				recorded_at >= $2 and
				recorded_at %s $3
			order by recorded_at asc
			limit 1`, endOperator),
			playerUUID, intervalStart, intervalEnd)

		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			err := fmt.Errorf("failed to select first snapshot in interval: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid":           playerUUID,
				"start":          start.Format(time.RFC3339),
				"end":            end.Format(time.RFC3339),
				"limit":          strconv.Itoa(limit),
				"intervalStart":  intervalStart.Format(time.RFC3339),
				"intervalEnd":    intervalEnd.Format(time.RFC3339),
				"endOperator":    endOperator,
				"isLastInterval": strconv.FormatBool(isLastInterval),
			})
			return nil, err
		}

		dbSnapshots = append(dbSnapshots, firstSnapshot)

		var lastSnapshot dbSnapshot
		err = txx.GetContext(
			ctx,
			&lastSnapshot,
			fmt.Sprintf(`select
				id, data_format_version, player_uuid, recorded_at, player_data
			from player_snapshots
			where
				player_uuid = $1 and
				recorded_at >= $2 and
				recorded_at %s $3
			order by recorded_at desc
			limit 1`, endOperator),
			playerUUID, intervalStart, intervalEnd)

		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			err := fmt.Errorf("failed to select last snapshot in interval: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid":           playerUUID,
				"start":          start.Format(time.RFC3339),
				"end":            end.Format(time.RFC3339),
				"limit":          strconv.Itoa(limit),
				"intervalStart":  intervalStart.Format(time.RFC3339),
				"intervalEnd":    intervalEnd.Format(time.RFC3339),
				"endOperator":    endOperator,
				"isLastInterval": strconv.FormatBool(isLastInterval),
			})
			return nil, err
		}

		if lastSnapshot.ID == firstSnapshot.ID {
			// Only one snapshot in this interval -> don't add it twice
			continue
		}

		dbSnapshots = append(dbSnapshots, lastSnapshot)
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":  playerUUID,
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
			"limit": strconv.Itoa(limit),
		})
		return nil, err
	}

	result := make([]domain.PlayerStats, 0, len(dbSnapshots))
	for _, snapshot := range dbSnapshots {
		player, err := dbSnapshotToPlayerStats(snapshot)
		if err != nil {
			err := fmt.Errorf("failed to convert db snapshot to player stats: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid":       playerUUID,
				"start":      start.Format(time.RFC3339),
				"end":        end.Format(time.RFC3339),
				"limit":      strconv.Itoa(limit),
				"snapshotID": snapshot.ID,
			})
			return nil, err
		}
		result = append(result, *player)
	}

	return result, nil
}

func (p *PostgresPlayerRepository) StoreQuests(ctx context.Context, playerUUID string, ledger *domain.QuestLedger) error {
	if ledger == nil {
		err := fmt.Errorf("ledger is nil")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return err
	}

	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return err
	}

	questData, err := questsToDataStorage(ledger)
	if err != nil {
		err := fmt.Errorf("failed to convert quests to data storage: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return err
	}

	conn, err := p.db.Connx(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get connection: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"schema": p.schema,
		})
		return err
	}

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO quest_ledgers
		(player_uuid, quests, updated_at, data_format_version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_uuid) DO UPDATE SET
			quests = EXCLUDED.quests,
			updated_at = EXCLUDED.updated_at,
			data_format_version = EXCLUDED.data_format_version`,
		playerUUID,
		questData,
		time.Now(),
		DATA_FORMAT_VERSION,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert quest ledger: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return err
	}

	logging.FromContext(ctx).Info("Stored quest ledger", "quests", ledger.Len())

	return nil
}

func (p *PostgresPlayerRepository) GetQuests(ctx context.Context, playerUUID string) (*domain.QuestLedger, error) {
	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}

	conn, err := p.db.Connx(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get connection: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":   playerUUID,
			"schema": p.schema,
		})
		return nil, err
	}

	var questData []byte
	err = conn.GetContext(
		ctx,
		&questData,
		"SELECT quests FROM quest_ledgers WHERE player_uuid = $1",
		playerUUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Players start with no quests
		return domain.NewQuestLedger(nil), nil
	}
	if err != nil {
		err := fmt.Errorf("failed to select quest ledger: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}

	ledger, err := questsFromDataStorage(questData)
	if err != nil {
		err := fmt.Errorf("failed to convert data storage to quests: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return nil, err
	}

	return ledger, nil
}
